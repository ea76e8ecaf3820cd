// Package dispatcher routes decoded orders onto shard queues. The
// ticker-to-shard mapping is a pure function, so every message for one
// symbol lands on the same worker and per-symbol FIFO order is preserved
// even though the dispatcher itself is called from many producers.
package dispatcher

import (
	"go.uber.org/zap"

	"exchange/infra/memory"
	"exchange/internal/metrics"
	"exchange/internal/wire"
)

type Dispatcher struct {
	shards []*memory.Queue
	zl     *zap.Logger
}

// New creates numShards shard queues of the given capacity (a power of
// two). The dispatcher holds the producer end only; each worker owns the
// consumer end of exactly one queue.
func New(numShards int, queueSize uint64, zl *zap.Logger) *Dispatcher {
	shards := make([]*memory.Queue, numShards)
	for i := range shards {
		shards[i] = memory.NewQueue(queueSize)
	}
	return &Dispatcher{shards: shards, zl: zl}
}

func (d *Dispatcher) NumShards() int { return len(d.shards) }

// ShardQueue exposes shard i's queue so its owning worker can drain it.
func (d *Dispatcher) ShardQueue(i int) *memory.Queue { return d.shards[i] }

// ShardFor maps a ticker to its shard index. ok is false for tickers
// outside the bucket partition.
func (d *Dispatcher) ShardFor(ticker string) (int, bool) {
	b, ok := BucketOf(ticker)
	if !ok {
		return 0, false
	}
	return b % len(d.shards), true
}

// Dispatch routes m onto its shard queue. Messages with an unroutable
// ticker and messages that hit a full shard queue are dropped and
// counted; neither is fatal.
func (d *Dispatcher) Dispatch(m *wire.Message) bool {
	ticker := m.TickerString()
	shard, ok := d.ShardFor(ticker)
	if !ok {
		metrics.DispatchDrops.WithLabelValues("unknown_ticker").Inc()
		d.zl.Debug("dropping unroutable ticker", zap.String("ticker", ticker))
		return false
	}
	if !d.shards[shard].Enqueue(m) {
		metrics.DispatchDrops.WithLabelValues("queue_full").Inc()
		d.zl.Warn("shard queue full, dropping order",
			zap.Int("shard", shard), zap.String("ticker", ticker))
		return false
	}
	return true
}
