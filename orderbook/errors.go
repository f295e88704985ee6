package orderbook

import "errors"

var (
	// ErrBadOrder rejects an order with a zero price or quantity, an unknown
	// enum tag, a caller-set ID, or Remaining outside (0, Quantity].
	ErrBadOrder = errors.New("orderbook: bad order")

	// ErrUnknownOrder is returned by cancel for an ID that is not resting.
	ErrUnknownOrder = errors.New("orderbook: unknown order")

	// ErrPoolFull is returned when the pre-sized pool has no free slot.
	// The book is left untouched.
	ErrPoolFull = errors.New("orderbook: pool full")
)
