package book

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T) (*Book, *[]Event) {
	t.Helper()
	events := &[]Event{}
	sink := func(e Event) { *events = append(*events, e) }
	return NewBook(sink, NewOrderPool()), events
}

func id(t *testing.T, s string) OrderID {
	t.Helper()
	u, err := uuid.Parse(s)
	if err != nil {
		// deterministic fallback for short test labels, not a real UUID string
		u = uuid.NewSHA1(uuid.NameSpaceOID, []byte(s))
	}
	return u
}

// S1: basic cross.
func TestExecute_BasicCross(t *testing.T) {
	b, events := newTestBook(t)
	bID, sID := id(t, "B"), id(t, "S")

	require.NoError(t, b.Add(bID, Buy, Limit, 100, 10, 1))
	require.NoError(t, b.Add(sID, Sell, Limit, 90, 5, 2))

	*events = nil
	b.Execute()

	require.Len(t, *events, 1)
	tr := (*events)[0]
	require.Equal(t, TradeReport, tr.Kind)
	require.Equal(t, bID, tr.OrderID)
	require.Equal(t, int64(100), tr.Price)
	require.Equal(t, sID, tr.OrderID2)
	require.Equal(t, int64(90), tr.Price2)
	require.Equal(t, int64(5), tr.Qty)

	require.True(t, b.Contains(bID))
	require.False(t, b.Contains(sID))

	bid, ok := b.BestBid()
	require.True(t, ok)
	require.Equal(t, int64(100), bid)

	_, ok = b.BestAsk()
	require.False(t, ok)
}

// S2: cascade across two bid levels into two ask levels.
func TestExecute_Cascade(t *testing.T) {
	b, events := newTestBook(t)
	b1, b2 := id(t, "B1"), id(t, "B2")
	s1, s2 := id(t, "S1"), id(t, "S2")

	require.NoError(t, b.Add(b1, Buy, Limit, 100, 5, 1))
	require.NoError(t, b.Add(b2, Buy, Limit, 95, 10, 2))
	require.NoError(t, b.Add(s2, Sell, Limit, 85, 10, 3))
	require.NoError(t, b.Add(s1, Sell, Limit, 90, 6, 4))

	*events = nil
	b.Execute()

	var total int64
	for _, e := range *events {
		require.Equal(t, TradeReport, e.Kind)
		total += e.Qty
	}
	require.Equal(t, int64(15), total)

	require.False(t, b.Contains(b1))
	require.False(t, b.Contains(b2))
	require.False(t, b.Contains(s2))
	require.True(t, b.Contains(s1))

	ask, ok := b.BestAsk()
	require.True(t, ok)
	require.Equal(t, int64(90), ask)

	_, ok = b.BestBid()
	require.False(t, ok)
}

// S3: duplicate id is rejected, original order untouched.
func TestAdd_DuplicateID(t *testing.T) {
	b, _ := newTestBook(t)
	x := id(t, "X")

	require.NoError(t, b.Add(x, Buy, Limit, 100, 10, 1))
	err := b.Add(x, Sell, Limit, 101, 5, 2)
	require.ErrorIs(t, err, ErrDuplicateID)

	bid, ok := b.BestBid()
	require.True(t, ok)
	require.Equal(t, int64(100), bid)
	_, ok = b.BestAsk()
	require.False(t, ok)
}

// S4: modify across side.
func TestModify_AcrossSide(t *testing.T) {
	b, _ := newTestBook(t)
	x := id(t, "X")

	require.NoError(t, b.Add(x, Buy, Limit, 100, 10, 1))
	require.NoError(t, b.Modify(x, Sell, 105, 15, 2))

	_, ok := b.BestBid()
	require.False(t, ok)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	require.Equal(t, int64(105), ask)
	require.True(t, b.Contains(x))
}

// S6: partial cancel, exact event sequence.
func TestScenarioSix_PartialCancel(t *testing.T) {
	b, events := newTestBook(t)
	buyID, sellID := id(t, "B"), id(t, "S")

	require.NoError(t, b.Add(buyID, Buy, Limit, 100, 10, 1))
	require.NoError(t, b.Add(sellID, Sell, Limit, 95, 20, 2))
	b.Execute()
	require.NoError(t, b.Cancel(sellID))

	require.Len(t, *events, 4)
	require.Equal(t, PriceLevelUpdate, (*events)[0].Kind)
	require.Equal(t, PriceLevelUpdate, (*events)[1].Kind)
	require.Equal(t, TradeReport, (*events)[2].Kind)
	require.Equal(t, int64(10), (*events)[2].Qty)
	require.Equal(t, Cancel, (*events)[3].Kind)

	_, ok := b.BestBid()
	require.False(t, ok)
	_, ok = b.BestAsk()
	require.False(t, ok)
}

func TestAddCancel_RestoresBestPrices(t *testing.T) {
	b, _ := newTestBook(t)
	a, x := id(t, "A"), id(t, "X")

	require.NoError(t, b.Add(a, Buy, Limit, 100, 10, 1))
	bid, _ := b.BestBid()

	require.NoError(t, b.Add(x, Buy, Limit, 110, 5, 2))
	require.NoError(t, b.Cancel(x))

	bid2, ok := b.BestBid()
	require.True(t, ok)
	require.Equal(t, bid, bid2)
}

func TestModify_SamePriceLosesTimePriority(t *testing.T) {
	b, _ := newTestBook(t)
	first, second, aggressor := id(t, "F"), id(t, "SE"), id(t, "AG")

	require.NoError(t, b.Add(first, Buy, Limit, 100, 5, 1))
	require.NoError(t, b.Add(second, Buy, Limit, 100, 5, 2))
	// re-insert "first" at the same price: it moves behind "second"
	require.NoError(t, b.Modify(first, Buy, 100, 5, 3))

	require.NoError(t, b.Add(aggressor, Sell, Limit, 100, 5, 4))
	b.Execute()

	require.False(t, b.Contains(second)) // second was still FIFO-front, fills first
	require.True(t, b.Contains(first))
}

func TestExecute_Idempotent(t *testing.T) {
	b, events := newTestBook(t)
	require.NoError(t, b.Add(id(t, "B"), Buy, Limit, 100, 10, 1))
	require.NoError(t, b.Add(id(t, "S"), Sell, Limit, 90, 5, 2))
	b.Execute()

	*events = nil
	b.Execute()
	require.Empty(t, *events)
}

func TestAdd_InvalidPrice(t *testing.T) {
	b, _ := newTestBook(t)
	err := b.Add(id(t, "X"), Buy, Limit, MaxPrice+1, 1, 1)
	require.ErrorIs(t, err, ErrInvalidPrice)

	require.NoError(t, b.Add(id(t, "Y"), Buy, Limit, MaxPrice, 1, 1))
}

func TestCancel_UnknownID(t *testing.T) {
	b, _ := newTestBook(t)
	err := b.Cancel(id(t, "ghost"))
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarketBuy_ConsumesAsksAndDiscardsResidual(t *testing.T) {
	b, events := newTestBook(t)
	require.NoError(t, b.Add(id(t, "S"), Sell, Limit, 90, 5, 1))

	*events = nil
	mkt := id(t, "MKT")
	require.NoError(t, b.Add(mkt, Buy, Market, 0, 8, 2))

	require.False(t, b.Contains(mkt))
	_, ok := b.BestAsk()
	require.False(t, ok)

	var trades, cancels int
	for _, e := range *events {
		switch e.Kind {
		case TradeReport:
			trades++
			require.Equal(t, int64(5), e.Qty)
		case Cancel:
			cancels++
			require.Equal(t, int64(3), e.Qty)
		}
	}
	require.Equal(t, 1, trades)
	require.Equal(t, 1, cancels)
}

func TestPriceLevel_AggregateQtyInvariant(t *testing.T) {
	b, _ := newTestBook(t)
	o1, o2 := id(t, "P1"), id(t, "P2")
	require.NoError(t, b.Add(o1, Buy, Limit, 50, 4, 1))
	require.NoError(t, b.Add(o2, Buy, Limit, 50, 6, 2))

	lvl := b.bids.Get(50)
	require.Equal(t, int64(10), lvl.AggregateQty)
	require.Equal(t, 2, lvl.OrderCount)
}
