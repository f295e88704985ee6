// Package matching implements the price-time priority matching walk over an
// order book.
//
// The walk is a plain synchronous function: one incoming order in, trades
// out, book mutated. Determinism rules: no clock reads (the timestamp is an
// argument), no hash iteration (the walk only follows the sorted price trees
// and the per-level FIFOs), no floating point (all quantities are scaled
// integers). Identical call sequences produce bit-identical trade streams on
// every host.
package matching

import (
	"darkbook/domain"
	"darkbook/fixed"
	"darkbook/orderbook"
)

// MatchResult reports what happened to one incoming order.
type MatchResult struct {
	// Trades in emission order, maker-priced.
	Trades []domain.Trade
	// FullyFilled is true when the incoming order was completely consumed.
	FullyFilled bool
	// Remaining is the unfilled scaled quantity after matching.
	Remaining uint64
	// RestingID is the book-assigned ID of the admitted residual, 0 when the
	// order was fully filled (IDs start at 1, so 0 never names an order).
	RestingID uint64
}

// MatchOrder consumes an incoming limit order against the book.
//
// The incoming order carries caller-set user ID, side, price and quantity,
// with Remaining == Quantity and ID 0 (the book assigns IDs). The timestamp
// is injected by the caller and stamped onto the order and every trade; the
// engine never reads a clock.
//
// Buys consume asks in ascending price order, sells consume bids in
// descending price order, FIFO within each level. Every trade executes at
// the maker's resting price. A residual that no resting order crosses is
// admitted to the book and its ID returned.
//
// Failures happen before any mutation: an invalid order is ErrBadOrder, a
// book at pool capacity is ErrPoolFull (the walk only frees slots, so a free
// slot at entry guarantees the residual can rest), and a same-side level
// whose aggregate could not absorb the full quantity is ErrOverflow.
func MatchOrder(book *orderbook.Book, incoming domain.Order, timestamp uint64) (MatchResult, error) {
	if incoming.ID != 0 ||
		!incoming.Side.Valid() || !incoming.Type.Valid() ||
		incoming.Price == 0 || incoming.Quantity == 0 ||
		incoming.Remaining != incoming.Quantity {
		return MatchResult{}, orderbook.ErrBadOrder
	}
	if book.AtCapacity() {
		return MatchResult{}, orderbook.ErrPoolFull
	}
	// The matching walk never touches the incoming order's own side, so the
	// aggregate the residual would join is known now. Checking here keeps
	// admission failure impossible after trades have executed.
	if resting := book.Depth(incoming.Price, incoming.Side); resting > 0 {
		if _, err := fixed.CheckedAdd(resting, incoming.Quantity); err != nil {
			return MatchResult{}, err
		}
	}

	incoming.Timestamp = timestamp
	opposite := incoming.Side.Opposite()

	var trades []domain.Trade
	for incoming.Remaining > 0 {
		level := book.BestLevel(opposite)
		if level == nil {
			break
		}
		if !crosses(incoming.Side, incoming.Price, level.Price()) {
			break
		}
		trades = append(trades, book.ExecuteFill(level, &incoming, timestamp))
	}

	result := MatchResult{
		Trades:      trades,
		FullyFilled: incoming.Remaining == 0,
		Remaining:   incoming.Remaining,
	}
	if incoming.Remaining > 0 && incoming.Type == domain.OrderTypeLimit {
		id, err := book.AddOrder(incoming)
		if err != nil {
			// Capacity and aggregate overflow were established before the
			// walk; a failure here means book state is no longer trustworthy.
			panic("matching: residual admission failed: " + err.Error())
		}
		result.RestingID = id
	}
	return result, nil
}

// crosses reports whether an incoming order at limitPrice matches a resting
// level at levelPrice: a buy lifts asks at or below its limit, a sell hits
// bids at or above.
func crosses(side domain.Side, limitPrice, levelPrice uint64) bool {
	if side == domain.SideBuy {
		return levelPrice <= limitPrice
	}
	return levelPrice >= limitPrice
}
