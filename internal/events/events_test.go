package events

import (
	"context"
	"errors"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (r *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.PublishEvent(context.Background(), TopicOrderPlaced, "demo-1", map[string]any{"id": "demo-1", "subtotal": "25.50"})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicOrderPlaced, w.messages[0].Topic)
	assert.Equal(t, "demo-1", string(w.messages[0].Key))
	assert.JSONEq(t, `{"id":"demo-1","subtotal":"25.50"}`, string(w.messages[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherErrors(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("no brokers")}}
	err := p.PublishEvent(context.Background(), TopicOrderPlaced, "k", struct{}{})
	assert.ErrorContains(t, err, "no brokers")

	err = p.PublishEvent(context.Background(), TopicOrderPlaced, "k", make(chan int))
	assert.ErrorContains(t, err, "marshal")
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{}.PublishEvent(context.Background(), "topic", "key", map[string]int{"n": 1}))
}
