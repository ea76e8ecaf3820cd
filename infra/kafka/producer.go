// Package kafka holds the thin producer used to feed framed order
// messages into the engine's orders topic.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // same key (ticker) -> same partition
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Send publishes one frame keyed by ticker, so per-symbol order survives
// topic partitioning.
func (p *Producer) Send(ctx context.Context, key, frame []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: frame,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
