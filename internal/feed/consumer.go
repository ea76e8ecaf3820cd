// Package feed ingests framed order messages from a Kafka topic and
// pushes them into the dispatcher. A topic substitutes for a socket; the
// frame format is unchanged.
package feed

import (
	"context"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"exchange/internal/wire"
)

// Dispatch hands one decoded message to the engine.
type Dispatch func(*wire.Message) bool

type Consumer struct {
	reader   *kafka.Reader
	dispatch Dispatch
	zl       *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, dispatch Dispatch, zl *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10 << 20,
		}),
		dispatch: dispatch,
		zl:       zl,
	}
}

// Run consumes frames until ctx is cancelled. Undecodable frames are
// dropped, matching the parser's reject-and-continue contract.
func (c *Consumer) Run(ctx context.Context) error {
	c.zl.Info("feed consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		m, err := wire.Decode(msg.Value)
		if err != nil {
			c.zl.Debug("dropping bad frame", zap.Error(err))
			continue
		}
		c.dispatch(m)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
