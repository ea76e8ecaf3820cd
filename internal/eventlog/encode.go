package eventlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"exchange/internal/book"
)

func kindName(k book.EventKind) string {
	switch k {
	case book.PriceLevelUpdate:
		return "price_level_update"
	case book.TradeReport:
		return "trade_report"
	case book.Modify:
		return "modify"
	case book.Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// appendID writes an order id's 16 raw bytes into a JSON string field.
// Control bytes, '"' and '\' are written as \u00XX escapes so a record
// always stays on one line; every other byte is written as-is.
func appendID(buf []byte, id book.OrderID) []byte {
	for _, c := range id {
		if c < 0x20 || c == '"' || c == '\\' {
			buf = fmt.Appendf(buf, `\u%04x`, c)
		} else {
			buf = append(buf, c)
		}
	}
	return buf
}

// appendLine renders one event as a single JSON-shaped text line. The
// order id fields carry the raw 16 bytes of the id, escaped by appendID.
func appendLine(buf []byte, e *book.Event) []byte {
	buf = append(buf, `{"type":"`...)
	buf = append(buf, kindName(e.Kind)...)
	buf = append(buf, `","timestamp":`...)
	buf = strconv.AppendInt(buf, e.Timestamp, 10)
	buf = append(buf, `,"order_id":"`...)
	buf = appendID(buf, e.OrderID)
	buf = append(buf, `","price":`...)
	buf = strconv.AppendInt(buf, e.Price, 10)
	buf = append(buf, `,"qty":`...)
	buf = strconv.AppendInt(buf, e.Qty, 10)
	buf = append(buf, `,"side":`...)
	buf = strconv.AppendInt(buf, int64(e.Side), 10)

	if e.Kind == book.TradeReport || e.Kind == book.Modify {
		buf = append(buf, `,"order_id_secondary":"`...)
		buf = appendID(buf, e.OrderID2)
		buf = append(buf, `","price_secondary":`...)
		buf = strconv.AppendInt(buf, e.Price2, 10)
		buf = append(buf, `,"qty_secondary":`...)
		buf = strconv.AppendInt(buf, e.Qty2, 10)
		buf = append(buf, `,"side_secondary":`...)
		buf = strconv.AppendInt(buf, int64(e.Side2), 10)
	}

	buf = append(buf, '}', '\n')
	return buf
}

// binary record layout, fixed 75 bytes:
// [kind:1][ts:8][id:16][price:8][qty:8][side:1][id2:16][price2:8][qty2:8][side2:1]
const binaryRecordLen = 1 + 8 + 16 + 8 + 8 + 1 + 16 + 8 + 8 + 1

var errBadRecord = errors.New("eventlog: malformed binary record")

func encodeBinary(buf []byte, e *book.Event) []byte {
	var rec [binaryRecordLen]byte
	rec[0] = byte(e.Kind)
	binary.BigEndian.PutUint64(rec[1:], uint64(e.Timestamp))
	copy(rec[9:], e.OrderID[:])
	binary.BigEndian.PutUint64(rec[25:], uint64(e.Price))
	binary.BigEndian.PutUint64(rec[33:], uint64(e.Qty))
	rec[41] = byte(e.Side)
	copy(rec[42:], e.OrderID2[:])
	binary.BigEndian.PutUint64(rec[58:], uint64(e.Price2))
	binary.BigEndian.PutUint64(rec[66:], uint64(e.Qty2))
	rec[74] = byte(e.Side2)
	return append(buf, rec[:]...)
}

func decodeBinary(b []byte) (book.Event, error) {
	if len(b) != binaryRecordLen {
		return book.Event{}, errBadRecord
	}
	var e book.Event
	e.Kind = book.EventKind(b[0])
	e.Timestamp = int64(binary.BigEndian.Uint64(b[1:]))
	copy(e.OrderID[:], b[9:25])
	e.Price = int64(binary.BigEndian.Uint64(b[25:]))
	e.Qty = int64(binary.BigEndian.Uint64(b[33:]))
	e.Side = book.Side(b[41])
	copy(e.OrderID2[:], b[42:58])
	e.Price2 = int64(binary.BigEndian.Uint64(b[58:]))
	e.Qty2 = int64(binary.BigEndian.Uint64(b[66:]))
	e.Side2 = book.Side(b[74])
	return e, nil
}
