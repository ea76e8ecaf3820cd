package eventlog

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"

	"exchange/internal/book"
)

// PebbleWriter is the binary realization of the event log: one pebble
// key-value entry per event, keyed by (timestamp, writer-local sequence).
// Iteration is in timestamp order, with events of equal timestamp in
// write order; events written out of timestamp order are not returned in
// write order. It stores the same field set as the text line, not book
// state.
type PebbleWriter struct {
	db  *pebble.DB
	seq uint64
	out []byte
}

func NewPebbleWriter(dir string) (*PebbleWriter, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleWriter{db: db}, nil
}

// key layout: [ts:8][seq:8], both big-endian so byte order is scan order.
func (w *PebbleWriter) key(ts int64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k[:8], uint64(ts))
	binary.BigEndian.PutUint64(k[8:], w.seq)
	w.seq++
	return k
}

func (w *PebbleWriter) WriteBatch(events []*book.Event) error {
	batch := w.db.NewBatch()
	for _, e := range events {
		w.out = encodeBinary(w.out[:0], e)
		if err := batch.Set(w.key(e.Timestamp), w.out, nil); err != nil {
			_ = batch.Close()
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (w *PebbleWriter) Close() error {
	return w.db.Close()
}

// Scan replays every stored event in key order. It is a consumer-side
// helper; the write path never reads.
func (w *PebbleWriter) Scan(fn func(e book.Event) error) error {
	iter, err := w.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeBinary(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}
