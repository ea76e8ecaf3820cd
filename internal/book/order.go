// Package book implements a single-symbol, price-time-priority limit
// order book. A Book is owned by exactly one worker goroutine; it performs
// no I/O and no locking of its own: mutations emit events into a
// caller-supplied sink instead of logging synchronously.
package book

import "github.com/google/uuid"

// OrderID is the order's opaque 16-byte identity. uuid.UUID is exactly
// 16 bytes and round-trips through the wire format's 16-byte id field and
// the event log's raw-bytes id field (the text line escapes control bytes,
// '"' and '\' as \u00XX).
type OrderID = uuid.UUID

type Side uint8

const (
	Buy Side = iota
	Sell
)

type Kind uint8

const (
	Limit Kind = iota
	Market
)

type Status uint8

const (
	New Status = iota
	PartiallyFilled
	Filled
	Cancelled
)

// MaxPrice is the highest representable price, in fixed minor units.
const MaxPrice int64 = 20000

// Order is a single resting or in-flight order. The next/prev fields make
// it a node of the intrusive doubly-linked FIFO owned by whichever
// PriceLevel it currently rests in; they are nil when the order is not
// resting in any level.
type Order struct {
	ID        OrderID
	Side      Side
	Kind      Kind
	Price     int64
	Qty       int64
	Filled    int64
	Timestamp int64
	Status    Status

	next, prev *Order
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Qty - o.Filled
}

// Next returns the following order in FIFO order within its level, or nil.
func (o *Order) Next() *Order {
	return o.next
}

// Reset clears an order for reuse from a pool.
func (o *Order) Reset() {
	*o = Order{}
}
