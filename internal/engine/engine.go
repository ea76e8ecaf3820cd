// Package engine wires the dispatcher, workers, and event log into one
// runnable matching engine and owns their lifecycle.
package engine

import (
	"sync/atomic"

	"go.uber.org/zap"

	"exchange/infra/memory"
	"exchange/internal/config"
	"exchange/internal/dispatcher"
	"exchange/internal/eventlog"
	"exchange/internal/worker"
	"exchange/internal/wire"
)

type Engine struct {
	cfg     *config.Config
	zl      *zap.Logger
	log     *eventlog.Log
	disp    *dispatcher.Dispatcher
	workers []*worker.Worker

	running atomic.Bool
	stopped atomic.Bool
}

// New builds the full pipeline. Failure to open the event log's storage
// is the only error and is fatal to startup.
func New(cfg *config.Config, zl *zap.Logger) (*Engine, error) {
	var (
		w   eventlog.Writer
		err error
	)
	if cfg.Pebble.Enabled {
		w, err = eventlog.NewPebbleWriter(cfg.Pebble.Dir)
	} else {
		w, err = eventlog.NewTextWriter(cfg.EventLog)
	}
	if err != nil {
		return nil, err
	}

	log := eventlog.New(w, uint64(cfg.EventQueueSize), cfg.DrainWait, zl)
	disp := dispatcher.New(cfg.Workers, uint64(cfg.ShardQueueSize), zl)

	workers := make([]*worker.Worker, cfg.Workers)
	for i := range workers {
		workers[i] = worker.New(i, disp.ShardQueue(i), log, cfg.BatchSize, zl)
	}

	e := &Engine{
		cfg:     cfg,
		zl:      zl,
		log:     log,
		disp:    disp,
		workers: workers,
	}

	for _, sym := range cfg.Symbols {
		shard, ok := disp.ShardFor(sym)
		if !ok {
			zl.Warn("cannot pre-register symbol", zap.String("ticker", sym))
			continue
		}
		workers[shard].Register(sym)
	}

	return e, nil
}

// TradeTap attaches a market-data tap to the event log. Must be called
// before Start.
func (e *Engine) TradeTap(size uint64) *memory.RetireRing {
	return e.log.TapTrades(size)
}

// Start launches the log writer and all workers.
func (e *Engine) Start() {
	e.log.Start()
	for _, w := range e.workers {
		w.Start()
	}
	e.running.Store(true)
	e.zl.Info("engine started",
		zap.Int("workers", len(e.workers)),
		zap.Int("buckets", dispatcher.NumBuckets))
}

// Dispatch routes one decoded order into the engine. Returns false once
// the engine is stopping, or when the dispatcher drops the message.
func (e *Engine) Dispatch(m *wire.Message) bool {
	if !e.running.Load() {
		return false
	}
	return e.disp.Dispatch(m)
}

// Worker exposes shard i's worker; used by tests to inspect books after
// a Stop.
func (e *Engine) Worker(i int) *worker.Worker { return e.workers[i] }

// ShardFor maps a ticker to its shard index.
func (e *Engine) ShardFor(ticker string) (int, bool) { return e.disp.ShardFor(ticker) }

// Stop shuts the pipeline down in dependency order: stop admitting,
// drain and join every worker, then drain, flush, and close the event
// log. Idempotent; repeated calls are no-ops.
func (e *Engine) Stop() {
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}
	e.running.Store(false)
	for _, w := range e.workers {
		w.Stop()
	}
	if err := e.log.Close(); err != nil {
		e.zl.Error("event log close failed", zap.Error(err))
	}
	e.zl.Info("engine stopped")
}
