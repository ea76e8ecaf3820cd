package book

import "time"

// nowNano is the book's monotonic clock, overridable in tests. It backs
// match_ts: read once per Execute call (and once per market-order
// crossing burst inside Add), never per fill.
var clockBase = time.Now()

var nowNano = func() int64 { return clockBase.UnixNano() + int64(time.Since(clockBase)) }

type indexEntry struct {
	side  Side
	price int64
	order *Order
}

// Book is a single-symbol, price-time-priority limit order book. It is
// exclusively owned by one worker: no internal locking, no I/O. Mutations
// are reported by constructing Events and handing them to sink.
type Book struct {
	bids *rbTree // Max() is the best bid
	asks *rbTree // Min() is the best ask

	index map[OrderID]*indexEntry

	sink Sink
	pool *OrderPool
}

func NewBook(sink Sink, pool *OrderPool) *Book {
	if pool == nil {
		pool = NewOrderPool()
	}
	return &Book{
		bids:  newRBTree(),
		asks:  newRBTree(),
		index: make(map[OrderID]*indexEntry),
		sink:  sink,
		pool:  pool,
	}
}

func (b *Book) emit(e Event) {
	if b.sink != nil {
		b.sink(e)
	}
}

// Contains reports whether id currently names a resting order.
func (b *Book) Contains(id OrderID) bool {
	_, ok := b.index[id]
	return ok
}

// BestBid returns the highest resting buy price, or ok=false if bids is empty.
func (b *Book) BestBid() (int64, bool) {
	lvl := b.bids.Max()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest resting sell price, or ok=false if asks is empty.
func (b *Book) BestAsk() (int64, bool) {
	lvl := b.asks.Min()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

func (b *Book) sideTree(s Side) *rbTree {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func validSide(s Side) bool { return s == Buy || s == Sell }

// Add inserts a new order with a unique id. Limit orders rest at their
// price level; Market orders never rest: they cross immediately against
// the opposite side and discard any residual with a synthesized Cancel.
func (b *Book) Add(id OrderID, side Side, kind Kind, price, qty, timestamp int64) error {
	if !validSide(side) {
		return ErrInvalidSide
	}
	if _, exists := b.index[id]; exists {
		return ErrDuplicateID
	}
	if kind == Limit && (price < 0 || price > MaxPrice) {
		return ErrInvalidPrice
	}

	o := b.pool.Get()
	*o = Order{
		ID:        id,
		Side:      side,
		Kind:      kind,
		Price:     price,
		Qty:       qty,
		Filled:    0,
		Timestamp: timestamp,
		Status:    New,
	}

	if kind == Market {
		b.crossMarket(o)
		return nil
	}

	level := b.sideTree(side).GetOrCreate(price)
	level.PushBack(o)
	b.index[id] = &indexEntry{side: side, price: price, order: o}

	b.emit(Event{
		Timestamp: timestamp,
		Kind:      PriceLevelUpdate,
		OrderID:   id,
		Price:     price,
		Qty:       qty,
		Side:      side,
	})
	return nil
}

// Modify changes an existing resting order's side/price/qty, preserving
// its id. The order is always removed and re-inserted at the tail of its
// (possibly new) level: time priority is lost even when side and price
// are unchanged.
func (b *Book) Modify(id OrderID, newSide Side, newPrice, newQty, timestamp int64) error {
	entry, ok := b.index[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !validSide(newSide) {
		return ErrInvalidSide
	}
	if newPrice < 0 || newPrice > MaxPrice {
		return ErrInvalidPrice
	}

	o := entry.order
	oldSide, oldPrice, oldQty := entry.side, entry.price, o.Remaining()

	oldLevel := b.sideTree(oldSide).Get(oldPrice)
	oldLevel.Remove(o)
	if oldLevel.Empty() {
		b.sideTree(oldSide).Delete(oldPrice)
	}

	o.Side = newSide
	o.Price = newPrice
	o.Qty = newQty
	o.Filled = 0
	o.Timestamp = timestamp

	newLevel := b.sideTree(newSide).GetOrCreate(newPrice)
	newLevel.PushBack(o)

	entry.side, entry.price = newSide, newPrice

	b.emit(Event{
		Timestamp: timestamp,
		Kind:      Modify,
		OrderID:   id,
		Price:     newPrice,
		Qty:       newQty,
		Side:      newSide,
		OrderID2:  id,
		Price2:    oldPrice,
		Qty2:      oldQty,
		Side2:     oldSide,
	})
	return nil
}

// Cancel removes a resting order entirely.
func (b *Book) Cancel(id OrderID) error {
	entry, ok := b.index[id]
	if !ok {
		return ErrOrderNotFound
	}

	o := entry.order
	level := b.sideTree(entry.side).Get(entry.price)
	level.Remove(o)
	if level.Empty() {
		b.sideTree(entry.side).Delete(entry.price)
	}
	delete(b.index, id)

	b.emit(Event{
		Timestamp: nowNano(),
		Kind:      Cancel,
		OrderID:   id,
		Price:     entry.price,
		Qty:       o.Remaining(),
		Side:      entry.side,
	})

	o.Status = Cancelled
	b.pool.Put(o)
	return nil
}

// Execute runs price-time-priority matching until the book is no longer
// crossed (best_bid < best_ask, or either side empty). One TradeReport is
// emitted per fill; match_ts is read once for the whole call.
func (b *Book) Execute() {
	ts := nowNano()
	for {
		bidLvl := b.bids.Max()
		askLvl := b.asks.Min()
		if bidLvl == nil || askLvl == nil || bidLvl.Price < askLvl.Price {
			return
		}

		bidOrder := bidLvl.Front()
		askOrder := askLvl.Front()
		if bidOrder == nil || askOrder == nil {
			return
		}

		qty := min64(bidOrder.Remaining(), askOrder.Remaining())
		bidOrder.Filled += qty
		askOrder.Filled += qty
		bidLvl.AggregateQty -= qty
		askLvl.AggregateQty -= qty

		b.emit(tradeEvent(ts, bidOrder.ID, bidLvl.Price, askOrder.ID, askLvl.Price, qty))

		if bidOrder.Remaining() == 0 {
			bidOrder.Status = Filled
			bidLvl.Remove(bidOrder)
			delete(b.index, bidOrder.ID)
			b.pool.Put(bidOrder)
			if bidLvl.Empty() {
				b.bids.Delete(bidLvl.Price)
			}
		}
		if askOrder.Remaining() == 0 {
			askOrder.Status = Filled
			askLvl.Remove(askOrder)
			delete(b.index, askOrder.ID)
			b.pool.Put(askOrder)
			if askLvl.Empty() {
				b.asks.Delete(askLvl.Price)
			}
		}
	}
}

// crossMarket matches a Market order immediately against the opposite
// side (Buy crosses asks from the lowest price up, Sell crosses bids from
// the highest price down) without ever resting it. Any quantity left once
// the opposite side is exhausted is discarded with a synthesized Cancel.
func (b *Book) crossMarket(o *Order) {
	ts := nowNano()
	opposite := b.sideTree(oppositeSide(o.Side))

	for o.Remaining() > 0 {
		lvl := bestOf(opposite, o.Side)
		if lvl == nil {
			break
		}
		resting := lvl.Front()
		qty := min64(o.Remaining(), resting.Remaining())
		o.Filled += qty
		resting.Filled += qty
		lvl.AggregateQty -= qty

		if o.Side == Buy {
			b.emit(tradeEvent(ts, o.ID, lvl.Price, resting.ID, lvl.Price, qty))
		} else {
			b.emit(tradeEvent(ts, resting.ID, lvl.Price, o.ID, lvl.Price, qty))
		}

		if resting.Remaining() == 0 {
			resting.Status = Filled
			lvl.Remove(resting)
			delete(b.index, resting.ID)
			b.pool.Put(resting)
			if lvl.Empty() {
				opposite.Delete(lvl.Price)
			}
		}
	}

	if o.Remaining() > 0 {
		b.emit(Event{
			Timestamp: ts,
			Kind:      Cancel,
			OrderID:   o.ID,
			Price:     0,
			Qty:       o.Remaining(),
			Side:      o.Side,
		})
		o.Status = Cancelled
	} else {
		o.Status = Filled
	}
	b.pool.Put(o)
}

// bestOf returns the best level of t, the opposite-side tree being
// crossed by an incoming market order on side aggressorSide: a Buy
// crosses asks from the lowest price up, a Sell crosses bids from the
// highest price down.
func bestOf(t *rbTree, aggressorSide Side) *PriceLevel {
	if aggressorSide == Buy {
		return t.Min()
	}
	return t.Max()
}

func oppositeSide(s Side) Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func tradeEvent(ts int64, buyID OrderID, buyPrice int64, sellID OrderID, sellPrice int64, qty int64) Event {
	return Event{
		Timestamp: ts,
		Kind:      TradeReport,
		OrderID:   buyID,
		Price:     buyPrice,
		Qty:       qty,
		Side:      Buy,
		OrderID2:  sellID,
		Price2:    sellPrice,
		Qty2:      qty,
		Side2:     Sell,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
