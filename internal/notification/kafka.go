package notification

import (
	"context"
	"encoding/json"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

type KafkaWriter struct {
	w *kgo.Writer
}

var _ EventWriter = (*KafkaWriter)(nil)

func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return &KafkaWriter{w: &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.Hash{},
		RequiredAcks: kgo.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// WriteEvent keys messages by post so all events of one post stay ordered.
func (k *KafkaWriter) WriteEvent(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kgo.Message{
		Key:   []byte(e.PostID),
		Value: value,
		Time:  e.OccurredAt,
	})
}

func (k *KafkaWriter) Close() error {
	return k.w.Close()
}
