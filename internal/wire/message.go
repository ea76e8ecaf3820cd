// Package wire decodes the fixed, big-endian inbound frame format the
// engine consumes. Framing itself (TCP accept loop, UDP publishing) is
// an external collaborator's concern; this package only implements the
// boundary between a framed byte stream and the Dispatcher.
package wire

import (
	"encoding/binary"
	"errors"

	"exchange/internal/book"
)

// MsgType is the one-byte message type at offset 8.
type MsgType uint8

const (
	MsgLimitBuy   MsgType = 0x01
	MsgLimitSell  MsgType = 0x02
	MsgMarketBuy  MsgType = 0x03
	MsgMarketSell MsgType = 0x04
	MsgUpdate     MsgType = 0x05
	MsgCancel     MsgType = 0x06
)

var (
	ErrFrameTooShort = errors.New("wire: frame too short for message type")
	ErrZeroPrice     = errors.New("wire: price is zero on a priced message")
	ErrZeroQty       = errors.New("wire: qty is zero on a priced message")
	ErrUnknownType   = errors.New("wire: unknown message type")
)

const (
	offTimestamp = 0
	offType      = 8
	offOrderID   = 9
	offTicker    = 25
	offPrice     = 29
	offQty       = 33
	offSide      = 37

	lenCancel = offPrice // cancel omits price+qty, i.e. 29 bytes
	lenPriced = offSide
	lenUpdate = offSide + 1
)

// Message is a single decoded inbound order instruction, ready to be
// routed by the Dispatcher and applied by a Worker.
type Message struct {
	Timestamp int64
	Ticker    [4]byte
	OrderID   book.OrderID
	Price     int64
	Qty       int64
	Side      book.Side
	Kind      book.Kind
	Status    book.Status
}

// TickerString returns the ticker with its zero padding stripped.
func (m *Message) TickerString() string {
	b := m.Ticker[:]
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// EncodeFrame builds one outbound frame, the inverse of Decode. Cancel
// frames omit price and qty; only Update frames carry the side byte.
func EncodeFrame(ts uint64, typ MsgType, orderID [16]byte, ticker [4]byte, price, qty uint32, side byte) []byte {
	n := lenPriced
	switch typ {
	case MsgCancel:
		n = lenCancel
	case MsgUpdate:
		n = lenUpdate
	}
	buf := make([]byte, n)
	binary.BigEndian.PutUint64(buf[offTimestamp:], ts)
	buf[offType] = byte(typ)
	copy(buf[offOrderID:], orderID[:])
	copy(buf[offTicker:], ticker[:])
	if typ != MsgCancel {
		binary.BigEndian.PutUint32(buf[offPrice:], price)
		binary.BigEndian.PutUint32(buf[offQty:], qty)
	}
	if typ == MsgUpdate {
		buf[offSide] = side
	}
	return buf
}

// Decode parses one fixed-layout frame. It validates frame length and
// rejects priced messages with price = 0 or qty = 0.
func Decode(frame []byte) (*Message, error) {
	if len(frame) < offTicker+4 {
		return nil, ErrFrameTooShort
	}

	typ := MsgType(frame[offType])

	m := &Message{
		Timestamp: int64(binary.BigEndian.Uint64(frame[offTimestamp:])),
	}
	copy(m.OrderID[:], frame[offOrderID:offOrderID+16])
	copy(m.Ticker[:], frame[offTicker:offTicker+4])

	switch typ {
	case MsgLimitBuy, MsgLimitSell, MsgMarketBuy, MsgMarketSell:
		if len(frame) < lenPriced {
			return nil, ErrFrameTooShort
		}
		price := binary.BigEndian.Uint32(frame[offPrice:])
		qty := binary.BigEndian.Uint32(frame[offQty:])
		if price == 0 {
			return nil, ErrZeroPrice
		}
		if qty == 0 {
			return nil, ErrZeroQty
		}
		m.Price = int64(price)
		m.Qty = int64(qty)
		m.Status = book.New

		switch typ {
		case MsgLimitBuy:
			m.Side, m.Kind = book.Buy, book.Limit
		case MsgLimitSell:
			m.Side, m.Kind = book.Sell, book.Limit
		case MsgMarketBuy:
			m.Side, m.Kind = book.Buy, book.Market
		case MsgMarketSell:
			m.Side, m.Kind = book.Sell, book.Market
		}

	case MsgUpdate:
		if len(frame) < lenUpdate {
			return nil, ErrFrameTooShort
		}
		price := binary.BigEndian.Uint32(frame[offPrice:])
		qty := binary.BigEndian.Uint32(frame[offQty:])
		if price == 0 {
			return nil, ErrZeroPrice
		}
		if qty == 0 {
			return nil, ErrZeroQty
		}
		m.Price = int64(price)
		m.Qty = int64(qty)
		m.Status = book.PartiallyFilled
		m.Kind = book.Limit
		if frame[offSide] == 'S' {
			m.Side = book.Sell
		} else {
			m.Side = book.Buy
		}

	case MsgCancel:
		if len(frame) < lenCancel {
			return nil, ErrFrameTooShort
		}
		m.Status = book.Cancelled

	default:
		return nil, ErrUnknownType
	}

	return m, nil
}
