package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersToAttributes(t *testing.T) {
	attrs := headersToAttributes(amqp.Table{
		AttrLogin: "123",
		"raw":     []byte("bytes"),
		"count":   int32(7),
	})
	assert.Equal(t, "123", attrs[AttrLogin])
	assert.Equal(t, "bytes", attrs["raw"])
	assert.Equal(t, "7", attrs["count"])

	assert.Nil(t, headersToAttributes(nil))
	assert.Nil(t, headersToAttributes(amqp.Table{}))
}

func TestOrderingKey(t *testing.T) {
	assert.Equal(t, "123", orderingKey(map[string]string{AttrLogin: "123"}))
	assert.Empty(t, orderingKey(nil))
	assert.Empty(t, orderingKey(map[string]string{"other": "x"}))
}

// loopbackBackend records publishes and replays them to subscribers.
type loopbackBackend struct {
	messages []Message
	closed   bool
}

func (b *loopbackBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.messages = append(b.messages, Message{ID: channel, Data: data, Attributes: attrs})
	return "msg-1", nil
}

func (b *loopbackBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	for _, msg := range b.messages {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *loopbackBackend) Close() error {
	b.closed = true
	return nil
}

func TestMQRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := &loopbackBackend{}
	broker := New(backend)

	attrs := map[string]string{AttrLogin: "123"}
	id, err := broker.Publish(ctx, AuditChannel, []byte(`{"login":"123"}`), attrs)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	var seen []Message
	require.NoError(t, broker.Subscribe(ctx, AuditChannel, func(ctx context.Context, msg Message) error {
		seen = append(seen, msg)
		return nil
	}))
	require.Len(t, seen, 1)
	assert.Equal(t, AuditChannel, seen[0].ID)
	assert.Equal(t, "123", seen[0].Attributes[AttrLogin])

	require.NoError(t, broker.Close())
	assert.True(t, backend.closed)
}
