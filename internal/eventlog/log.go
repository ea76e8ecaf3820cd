// Package eventlog is the asynchronous event pipeline: workers publish
// book events onto a lock-free multi-producer queue, and a single writer
// goroutine drains them in batches to durable storage. Producers never
// block on I/O.
package eventlog

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"exchange/infra/memory"
	"exchange/internal/book"
	"exchange/internal/metrics"
)

// batchMax bounds how many events one drain pass hands to the writer.
const batchMax = 512

// Log owns the event queue's consumer end and the storage writer. All
// workers share the producer end via Publish.
type Log struct {
	q    *memory.Queue
	pool *memory.Pool[book.Event]
	w    Writer
	zl   *zap.Logger

	wake chan struct{}
	wait time.Duration

	tap *memory.RetireRing

	started atomic.Bool
	running atomic.Bool
	stopped atomic.Bool
	done    chan struct{}

	batch []*book.Event
}

// New builds a Log over w. queueSize must be a power of two. wait bounds
// how long the writer parks when the queue is empty.
func New(w Writer, queueSize uint64, wait time.Duration, zl *zap.Logger) *Log {
	return &Log{
		q:     memory.NewQueue(queueSize),
		pool:  memory.NewPool(func() *book.Event { return &book.Event{} }),
		w:     w,
		zl:    zl,
		wake:  make(chan struct{}, 1),
		wait:  wait,
		done:  make(chan struct{}),
		batch: make([]*book.Event, 0, batchMax),
	}
}

// TapTrades attaches a bounded ring the writer fills with TradeReport
// events after they are persisted. The market-data publisher drains it;
// when it lags, trades are dropped from the tap (never from the log).
// Must be called before Start.
func (l *Log) TapTrades(size uint64) *memory.RetireRing {
	l.tap = memory.NewRetireRing(size)
	return l.tap
}

// Start launches the writer goroutine.
func (l *Log) Start() {
	l.started.Store(true)
	l.running.Store(true)
	go l.run()
}

// Publish enqueues one event. It never blocks: when the queue is full
// the event is dropped and counted.
func (l *Log) Publish(e book.Event) {
	ev := l.pool.Get()
	*ev = e
	if !l.q.Enqueue(ev) {
		l.pool.Put(ev)
		metrics.EventsDropped.Inc()
		return
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Close stops the writer after it has drained every pending event, then
// closes the underlying storage. Idempotent.
func (l *Log) Close() error {
	if !l.stopped.CompareAndSwap(false, true) {
		return nil
	}
	l.running.Store(false)
	if l.started.Load() {
		select {
		case l.wake <- struct{}{}:
		default:
		}
		<-l.done
	}
	err := l.w.Close()
	if err != nil {
		l.zl.Error("event log close failed", zap.Error(err))
	}
	return err
}

func (l *Log) run() {
	defer close(l.done)
	for {
		n := l.drainOnce()
		if n > 0 {
			continue
		}
		if !l.running.Load() {
			for l.drainOnce() > 0 {
			}
			return
		}
		select {
		case <-l.wake:
		case <-time.After(l.wait):
		}
	}
}

// drainOnce moves up to batchMax queued events into the writer and
// returns how many it wrote.
func (l *Log) drainOnce() int {
	l.batch = l.batch[:0]
	for len(l.batch) < batchMax {
		v := l.q.Dequeue()
		if v == nil {
			break
		}
		l.batch = append(l.batch, v.(*book.Event))
	}
	if len(l.batch) == 0 {
		return 0
	}

	start := time.Now()
	if err := l.w.WriteBatch(l.batch); err != nil {
		l.zl.Error("event log write failed",
			zap.Int("batch", len(l.batch)), zap.Error(err))
	} else {
		metrics.EventsWritten.Add(float64(len(l.batch)))
		metrics.WriteLatency.Observe(time.Since(start).Seconds())
	}
	metrics.EventQueueDepth.Set(float64(l.q.Len()))

	for _, ev := range l.batch {
		if l.tap != nil && ev.Kind == book.TradeReport {
			_ = l.tap.Enqueue(*ev)
		}
		l.pool.Put(ev)
	}
	return len(l.batch)
}
