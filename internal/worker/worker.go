// Package worker runs the drain loops that own the books. Each worker
// is the single consumer of one shard queue and the exclusive owner of
// every book in its shard, so book mutations need no locking.
package worker

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"exchange/infra/memory"
	"exchange/internal/book"
	"exchange/internal/eventlog"
	"exchange/internal/metrics"
	"exchange/internal/wire"
)

// idleWait is how long a worker sleeps after an empty drain pass.
const idleWait = 50 * time.Microsecond

type Worker struct {
	id        int
	in        *memory.Queue
	books     map[string]*book.Book
	pool      *book.OrderPool
	log       *eventlog.Log
	zl        *zap.Logger
	batchSize int

	started bool
	stop    chan struct{}
	done    chan struct{}
}

func New(id int, in *memory.Queue, log *eventlog.Log, batchSize int, zl *zap.Logger) *Worker {
	return &Worker{
		id:        id,
		in:        in,
		books:     make(map[string]*book.Book),
		pool:      book.NewOrderPool(),
		log:       log,
		zl:        zl,
		batchSize: batchSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Register pre-creates the book for ticker. Only valid before Start;
// after that, books are created lazily by the drain loop itself.
func (w *Worker) Register(ticker string) {
	w.bookFor(ticker)
}

func (w *Worker) bookFor(ticker string) *book.Book {
	bk, ok := w.books[ticker]
	if !ok {
		bk = book.NewBook(w.log.Publish, w.pool)
		w.books[ticker] = bk
		w.zl.Debug("created book", zap.Int("worker", w.id), zap.String("ticker", ticker))
	}
	return bk
}

// Book returns the book for ticker, or nil. Callers other than the
// worker goroutine may only use this while the worker is stopped.
func (w *Worker) Book(ticker string) *book.Book {
	return w.books[ticker]
}

func (w *Worker) Start() {
	w.started = true
	go w.run()
}

// Stop signals the drain loop and blocks until it has applied every
// operation already enqueued on its shard. Must not be called twice.
func (w *Worker) Stop() {
	if !w.started {
		return
	}
	close(w.stop)
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		n := w.drainBatch()
		if n > 0 {
			metrics.WorkerBatch.Observe(float64(n))
			continue
		}
		select {
		case <-w.stop:
			for w.drainBatch() > 0 {
			}
			return
		default:
			time.Sleep(idleWait)
		}
	}
}

func (w *Worker) drainBatch() int {
	n := 0
	for n < w.batchSize {
		v := w.in.Dequeue()
		if v == nil {
			break
		}
		w.apply(v.(*wire.Message))
		n++
	}
	return n
}

// apply routes one inbound message by its status to a book operation,
// then runs matching so fills are observable before the next operation
// on the same book.
func (w *Worker) apply(m *wire.Message) {
	bk := w.bookFor(m.TickerString())

	var err error
	switch m.Status {
	case book.New:
		err = bk.Add(m.OrderID, m.Side, m.Kind, m.Price, m.Qty, m.Timestamp)
	case book.Cancelled:
		err = bk.Cancel(m.OrderID)
	case book.PartiallyFilled, book.Filled:
		err = bk.Modify(m.OrderID, m.Side, m.Price, m.Qty, m.Timestamp)
	default:
		metrics.BookErrors.WithLabelValues("unknown_status").Inc()
		return
	}

	if err != nil {
		metrics.BookErrors.WithLabelValues(errKind(err)).Inc()
		w.zl.Debug("order rejected",
			zap.Int("worker", w.id),
			zap.String("ticker", m.TickerString()),
			zap.Error(err))
		return
	}

	bk.Execute()
}

func errKind(err error) string {
	switch {
	case errors.Is(err, book.ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, book.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, book.ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, book.ErrInvalidPrice):
		return "invalid_price"
	default:
		return "other"
	}
}
