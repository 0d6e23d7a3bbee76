package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	declareErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewAMQPPublisher(ch, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"todos:topic"}, ch.declared)

	parent := "0190123d-c9c0-7000-8000-00000000000a"
	event := Event{
		Type:       TodoCreated,
		ID:         "0190123d-c9c1-7000-8000-00000000000b",
		ParentID:   &parent,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"todos/todo.created"}, ch.keys)

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, parent, *decoded.ParentID)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherDeclareFailure(t *testing.T) {
	_, err := NewAMQPPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "todos")
	assert.ErrorContains(t, err, "access refused")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), Event{Type: TodoDeleted, ID: "a"}))
	assert.Equal(t, []Type{TodoDeleted}, r.Types())
}
