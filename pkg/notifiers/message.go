package notifiers

import (
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
)

// Message is the notification payload every sink receives. Email sinks send
// it as a mail; the others publish it as JSON.
type Message struct {
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Council     string    `json:"council,omitempty"`
	Region      string    `json:"region,omitempty"`
	MeetingDate string    `json:"meeting_date,omitempty"`
	DocumentURL string    `json:"document_url,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// NewMessage constructs a Message stamped with the current UTC time.
func NewMessage(recipient, subject, body string) Message {
	return Message{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
	}
}

// ForAgenda tags m with the council and meeting that rec describes.
// DocumentURL is the record's dedup key, so it names the agenda uniquely.
func (m Message) ForAgenda(rec domain.AgendaRecord) Message {
	m.Council = rec.Council
	m.Region = rec.Region
	m.MeetingDate = rec.Date
	m.DocumentURL = rec.DedupKey
	return m
}

// Attributes returns the routing metadata queue and topic sinks attach
// alongside the JSON payload. Empty values are omitted.
func (m Message) Attributes() map[string]string {
	attrs := make(map[string]string, 5)
	for k, v := range map[string]string{
		"recipient":    m.Recipient,
		"subject":      m.Subject,
		"council":      m.Council,
		"region":       m.Region,
		"meeting_date": m.MeetingDate,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
