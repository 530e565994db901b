package notifiers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monashAgenda = domain.AgendaRecord{
	Council:  "Monash",
	Region:   "Melbourne",
	Date:     "30 January 2024",
	DedupKey: "https://www.monash.vic.gov.au/files/agenda.pdf",
}

func TestDispatcherNotifyStampsMessage(t *testing.T) {
	sink := &stubSink{id: "s", typ: "http"}
	d := NewDispatcher(NewFanout([]Sink{sink}), nil)

	before := time.Now().UTC()
	require.NoError(t, d.Notify(context.Background(), "me@example.com", monashAgenda, "New agenda: Monash meeting", "body"))

	got := sink.last
	assert.Equal(t, time.UTC, got.SentAt.Location())
	assert.WithinDuration(t, before, got.SentAt, time.Minute)
	got.SentAt = time.Time{}
	assert.Equal(t, Message{
		Recipient:   "me@example.com",
		Subject:     "New agenda: Monash meeting",
		Body:        "body",
		Council:     "Monash",
		Region:      "Melbourne",
		MeetingDate: "30 January 2024",
		DocumentURL: "https://www.monash.vic.gov.au/files/agenda.pdf",
	}, got)
}

func TestMessageAttributesOmitEmpty(t *testing.T) {
	msg := NewMessage("me@example.com", "New agenda: Monash meeting", "body").ForAgenda(domain.AgendaRecord{Council: "Monash"})
	assert.Equal(t, map[string]string{
		"recipient": "me@example.com",
		"subject":   "New agenda: Monash meeting",
		"council":   "Monash",
	}, msg.Attributes())
}

func TestDispatcherPartialDeliverySucceeds(t *testing.T) {
	d := NewDispatcher(NewFanout([]Sink{
		&stubSink{id: "ok", typ: "http"},
		&stubSink{id: "bad", typ: "sqs", err: errors.New("throttled")},
	}), nil)
	assert.NoError(t, d.Notify(context.Background(), "me@example.com", monashAgenda, "s", "b"))
}

func TestDispatcherTotalFailure(t *testing.T) {
	d := NewDispatcher(NewFanout([]Sink{&stubSink{id: "bad", typ: "smtp", err: errors.New("auth")}}), nil)
	assert.Error(t, d.Notify(context.Background(), "me@example.com", monashAgenda, "s", "b"))
}

func TestDispatcherRejectsMissingInputs(t *testing.T) {
	empty := NewDispatcher(NewFanout(nil), nil)
	assert.Error(t, empty.Notify(context.Background(), "me@example.com", monashAgenda, "s", "b"))

	d := NewDispatcher(NewFanout([]Sink{&stubSink{id: "s", typ: "http"}}), nil)
	assert.Error(t, d.Notify(context.Background(), "  ", monashAgenda, "s", "b"))
}
