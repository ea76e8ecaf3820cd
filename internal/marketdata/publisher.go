// Package marketdata republishes trade reports to an outbound topic.
// It drains the event log's trade tap on an interval, so publishing
// never touches the matching path or the log writer's throughput.
package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"exchange/infra/memory"
	"exchange/internal/book"
	"exchange/internal/metrics"
)

// Trade is the outbound market-data record for one fill.
type Trade struct {
	Timestamp int64  `json:"timestamp"`
	BuyID     string `json:"buy_id"`
	BuyPrice  int64  `json:"buy_price"`
	SellID    string `json:"sell_id"`
	SellPrice int64  `json:"sell_price"`
	Qty       int64  `json:"qty"`
}

type Publisher struct {
	tap      *memory.RetireRing
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	zl       *zap.Logger
}

func New(brokers []string, topic string, tap *memory.RetireRing, interval time.Duration, zl *zap.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		tap:      tap,
		producer: producer,
		topic:    topic,
		interval: interval,
		zl:       zl,
	}, nil
}

// Run drains the tap on an interval until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	p.zl.Info("market-data publisher started", zap.String("topic", p.topic))
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.publishPending()
			return
		case <-ticker.C:
			p.publishPending()
		}
	}
}

func (p *Publisher) publishPending() {
	for {
		v := p.tap.Dequeue()
		if v == nil {
			return
		}
		e := v.(book.Event)
		payload, err := json.Marshal(Trade{
			Timestamp: e.Timestamp,
			BuyID:     e.OrderID.String(),
			BuyPrice:  e.Price,
			SellID:    e.OrderID2.String(),
			SellPrice: e.Price2,
			Qty:       e.Qty,
		})
		if err != nil {
			continue
		}

		_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
			Topic: p.topic,
			Value: sarama.ByteEncoder(payload),
		})
		if err != nil {
			// market data is lossy: drop and move on
			p.zl.Warn("trade publish failed", zap.Error(err))
			continue
		}
		metrics.TradesPublished.Inc()
	}
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
