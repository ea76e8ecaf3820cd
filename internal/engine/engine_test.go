package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"exchange/internal/book"
	"exchange/internal/config"
	"exchange/internal/wire"
	"exchange/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		EventLog:       filepath.Join(t.TempDir(), "events.log"),
		Workers:        2,
		ShardQueueSize: 1 << 10,
		EventQueueSize: 1 << 12,
		BatchSize:      128,
		DrainWait:      time.Millisecond,
	}
}

func testID(s string) book.OrderID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(s))
}

func orderMsg(ticker, id string, side book.Side, price, qty int64) *wire.Message {
	m := &wire.Message{
		Timestamp: time.Now().UnixNano(),
		OrderID:   testID(id),
		Status:    book.New,
		Side:      side,
		Kind:      book.Limit,
		Price:     price,
		Qty:       qty,
	}
	copy(m.Ticker[:], ticker)
	return m
}

func readLog(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := strings.TrimRight(string(data), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestEngine_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	eng, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	eng.Start()

	require.True(t, eng.Dispatch(orderMsg("ABCD", "B", book.Buy, 100, 10)))
	require.True(t, eng.Dispatch(orderMsg("ABCD", "S", book.Sell, 90, 5)))
	eng.Stop()

	lines := readLog(t, cfg.EventLog)
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], `"type":"price_level_update"`)
	require.Contains(t, lines[1], `"type":"price_level_update"`)
	require.Contains(t, lines[2], `"type":"trade_report"`)
	require.Contains(t, lines[2], `"price":100`)
	require.Contains(t, lines[2], `"price_secondary":90`)
}

// Interleaved activity on two symbols never cross-matches, even at
// coinciding prices.
func TestEngine_SymbolIsolation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Symbols = []string{"ABCD", "WXYZ"}
	eng, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	eng.Start()

	require.True(t, eng.Dispatch(orderMsg("ABCD", "a-buy", book.Buy, 100, 5)))
	require.True(t, eng.Dispatch(orderMsg("WXYZ", "w-sell", book.Sell, 90, 5)))
	require.True(t, eng.Dispatch(orderMsg("ABCD", "a-buy2", book.Buy, 95, 5)))
	require.True(t, eng.Dispatch(orderMsg("WXYZ", "w-sell2", book.Sell, 95, 5)))
	eng.Stop()

	for _, line := range readLog(t, cfg.EventLog) {
		require.NotContains(t, line, `"type":"trade_report"`,
			"orders on different symbols must never match")
	}

	shardA, ok := eng.ShardFor("ABCD")
	require.True(t, ok)
	bkA := eng.Worker(shardA).Book("ABCD")
	require.NotNil(t, bkA)
	require.True(t, bkA.Contains(testID("a-buy")))
	require.True(t, bkA.Contains(testID("a-buy2")))

	shardW, ok := eng.ShardFor("WXYZ")
	require.True(t, ok)
	bkW := eng.Worker(shardW).Book("WXYZ")
	require.NotNil(t, bkW)
	require.True(t, bkW.Contains(testID("w-sell")))
	require.True(t, bkW.Contains(testID("w-sell2")))
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	eng, err := New(testConfig(t), logger.NewNop())
	require.NoError(t, err)
	eng.Start()
	eng.Stop()
	eng.Stop()
	eng.Stop()
}

func TestEngine_DispatchAfterStopIsRefused(t *testing.T) {
	eng, err := New(testConfig(t), logger.NewNop())
	require.NoError(t, err)
	eng.Start()
	eng.Stop()
	require.False(t, eng.Dispatch(orderMsg("ABCD", "late", book.Buy, 100, 1)))
}

func TestEngine_OpenFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventLog = filepath.Join(t.TempDir(), "no-such-dir", "events.log")
	_, err := New(cfg, logger.NewNop())
	require.Error(t, err)
}

func TestEngine_WireRoundTrip(t *testing.T) {
	// frames through the real decoder, end to end
	cfg := testConfig(t)
	eng, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	eng.Start()

	frame := make([]byte, 38)
	frame[8] = 0x01 // limit buy
	id := testID("wire-buy")
	copy(frame[9:25], id[:])
	copy(frame[25:29], "ABCD")
	frame[29], frame[30], frame[31], frame[32] = 0, 0, 0, 100
	frame[33], frame[34], frame[35], frame[36] = 0, 0, 0, 10

	m, err := wire.Decode(frame)
	require.NoError(t, err)
	require.True(t, eng.Dispatch(m))
	eng.Stop()

	lines := readLog(t, cfg.EventLog)
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"type":"price_level_update"`)
	require.Contains(t, lines[0], `"price":100`)
	require.Contains(t, lines[0], `"qty":10`)
}
