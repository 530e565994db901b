package notifiers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	id       string
	typ      string
	err      error
	closeErr error
	calls    int
	closed   bool
	last     Message
}

func (s *stubSink) ID() string   { return s.id }
func (s *stubSink) Type() string { return s.typ }
func (s *stubSink) Deliver(_ context.Context, msg Message) error {
	s.calls++
	s.last = msg
	return s.err
}
func (s *stubSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestFanoutDeliverAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Sink{
		&stubSink{id: "ok", typ: "http"},
		nil,
		&stubSink{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Deliver(context.Background(), Message{})
	assert.Equal(t, 1, count)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http sink[bad]")
	assert.Equal(t, 2, fanout.Size())
}

func TestFanoutCloseClosesSinks(t *testing.T) {
	a := &stubSink{id: "a", typ: "nats"}
	b := &stubSink{id: "b", typ: "pubsub", closeErr: errors.New("busy")}

	err := NewFanout([]Sink{a, b}).Close()
	require.Error(t, err)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	sinks, err := BuildAll(context.Background(), DefaultRegistry(), []SinkConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com", Method: "POST", TimeoutSeconds: 1}},
		{ID: "mail", Type: TypeSMTP, SMTP: &SMTPConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com", TimeoutSeconds: 1}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, sinks, 2)
	assert.Equal(t, TypeHTTP, sinks[0].Type())
	assert.Equal(t, TypeSMTP, sinks[1].Type())
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []SinkConfig{{ID: "x", Type: "pigeon"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pigeon")
}
