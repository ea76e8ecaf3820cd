// Package metrics holds the engine's Prometheus instruments. The book
// itself exposes nothing; the worker, dispatcher, and event log record
// at their own call sites.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookErrors counts rejected book operations by error kind.
	BookErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exchange",
		Name:      "book_errors_total",
		Help:      "Book operations rejected, by error kind.",
	}, []string{"kind"})

	// DispatchDrops counts messages the dispatcher could not route:
	// unknown ticker, or a full shard queue.
	DispatchDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exchange",
		Name:      "dispatch_drops_total",
		Help:      "Messages dropped by the dispatcher, by reason.",
	}, []string{"reason"})

	// WorkerBatch observes the number of operations a worker applied in
	// one drain pass.
	WorkerBatch = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exchange",
		Name:      "worker_batch_ops",
		Help:      "Operations applied per worker drain pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
	})

	// EventQueueDepth is the approximate depth of the event log queue.
	EventQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "exchange",
		Name:      "event_queue_depth",
		Help:      "Approximate events waiting for the log writer.",
	})

	// EventsWritten counts events persisted to the log.
	EventsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exchange",
		Name:      "events_written_total",
		Help:      "Events written to the event log.",
	})

	// EventsDropped counts events lost to a full log queue.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exchange",
		Name:      "events_dropped_total",
		Help:      "Events dropped because the log queue was full.",
	})

	// WriteLatency observes the duration of one write-and-flush batch.
	WriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exchange",
		Name:      "event_write_seconds",
		Help:      "Latency of one event log write batch.",
		Buckets:   prometheus.DefBuckets,
	})

	// TradesPublished counts trade reports republished to market data.
	TradesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exchange",
		Name:      "trades_published_total",
		Help:      "Trade reports published to the market-data topic.",
	})
)
