package book

import "errors"

// Enumerated book error kinds. Every failure mode a Book operation can
// produce is one of these sentinels, checked with errors.Is by the
// worker; none of them is fatal.
var (
	ErrDuplicateID   = errors.New("book: duplicate order id")
	ErrOrderNotFound = errors.New("book: order not found")
	ErrInvalidSide   = errors.New("book: invalid side")
	ErrInvalidPrice  = errors.New("book: invalid price")
	// ErrNoMatch is reserved; no current operation returns it.
	ErrNoMatch = errors.New("book: no match")
)
