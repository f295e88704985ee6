package orderbook

import (
	"darkbook/fixed"
)

// PriceLevel holds every resting order at one price: an intrusive FIFO of
// pool handles (time priority) plus the aggregate remaining quantity.
// Levels are created when the first order arrives at an unseen price and
// destroyed by the book when their queue empties.
//
// Invariants:
//   - totalQuantity == sum of Remaining over the queue
//   - head == NilHandle <=> tail == NilHandle <=> orderCount == 0
type PriceLevel struct {
	price         uint64
	totalQuantity uint64
	head          Handle
	tail          Handle
	orderCount    int
}

func newPriceLevel(price uint64) *PriceLevel {
	return &PriceLevel{price: price, head: NilHandle, tail: NilHandle}
}

// Price returns the level's price.
func (l *PriceLevel) Price() uint64 { return l.price }

// TotalQuantity returns the aggregate remaining quantity across the queue.
func (l *PriceLevel) TotalQuantity() uint64 { return l.totalQuantity }

// OrderCount returns the number of resting orders at this level.
func (l *PriceLevel) OrderCount() int { return l.orderCount }

// PeekHead returns the oldest handle in the queue, NilHandle when empty.
func (l *PriceLevel) PeekHead() Handle { return l.head }

// pushBack appends h at the tail of the FIFO and grows the aggregate by the
// node's remaining quantity. The caller has already checked the aggregate
// for overflow. O(1).
func (l *PriceLevel) pushBack(p *Pool, h Handle) {
	n := p.mustNode(h)
	n.prev = l.tail
	n.next = NilHandle
	if l.tail != NilHandle {
		p.mustNode(l.tail).next = h
	} else {
		l.head = h
	}
	l.tail = h
	l.totalQuantity += n.order.Remaining
	l.orderCount++
}

// unlink removes h from anywhere in the queue in O(1) via the node's own
// prev/next links. The aggregate is not touched; callers pair unlink with
// reduceQuantity.
func (l *PriceLevel) unlink(p *Pool, h Handle) {
	n := p.mustNode(h)
	if n.prev != NilHandle {
		p.mustNode(n.prev).next = n.next
	} else {
		l.head = n.next
	}
	if n.next != NilHandle {
		p.mustNode(n.next).prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = NilHandle
	n.next = NilHandle
	l.orderCount--
}

// reduceQuantity shrinks the aggregate after a fill or cancel. Underflow
// cannot happen with validated inputs; if it does, book state is no longer
// trustworthy and the process aborts rather than continue half-matched.
func (l *PriceLevel) reduceQuantity(delta uint64) {
	v, err := fixed.CheckedSub(l.totalQuantity, delta)
	if err != nil {
		panic("orderbook: price level quantity underflow")
	}
	l.totalQuantity = v
}
