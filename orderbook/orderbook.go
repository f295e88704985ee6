package orderbook

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"darkbook/domain"
	"darkbook/fixed"
)

// Book implements a price-time priority limit order book.
// Single-threaded design: only ever touched by one caller at a time, no
// interior locking. The pool, the two price trees and the ID index form one
// coupled invariant set; every public mutation leaves all three consistent
// before returning, or returns an error having touched nothing.
//
// Structure:
//   - bids: red-black tree keyed by price, descending (first key = best bid)
//   - asks: red-black tree keyed by price, ascending (first key = best ask)
//   - each tree value is a PriceLevel, an intrusive FIFO of pool handles
//   - byID maps order ID -> pool handle for O(1) cancel
//
// Iteration is only ever over the trees (deterministic by price) and the
// FIFOs (deterministic by admission); the hash map is lookup-only, so no
// hash-iteration order can leak into results or state roots.
type Book struct {
	bids *rbt.Tree[uint64, *PriceLevel]
	asks *rbt.Tree[uint64, *PriceLevel]
	byID map[uint64]Handle
	pool *Pool

	nextOrderID uint64
	nextTradeID uint64
}

// LevelSnapshot is one price level of a depth view.
type LevelSnapshot struct {
	Price    uint64
	Quantity uint64
	Orders   int
}

// New creates a book whose pool is pre-sized for capacity resting orders.
// Inserts beyond capacity fail with ErrPoolFull rather than reallocate; size
// capacity to the peak book depth.
func New(capacity int) *Book {
	return &Book{
		bids: rbt.NewWith[uint64, *PriceLevel](func(a, b uint64) int {
			// Descending: the tree's leftmost key is the highest bid.
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			}
			return 0
		}),
		asks: rbt.NewWith[uint64, *PriceLevel](func(a, b uint64) int {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			}
			return 0
		}),
		byID:        make(map[uint64]Handle, capacity),
		pool:        NewPool(capacity),
		nextOrderID: 1,
		nextTradeID: 1,
	}
}

// tree returns the sorted map for one side.
func (b *Book) tree(side domain.Side) *rbt.Tree[uint64, *PriceLevel] {
	if side == domain.SideBuy {
		return b.bids
	}
	return b.asks
}

// AddOrder admits a resting order: assigns the next order ID, stores the
// node, links it at the tail of its price level (creating the level if the
// price is unseen) and indexes it for cancel. Returns the assigned ID.
//
// The order must carry ID 0 - the book is authoritative for ID assignment.
// Validation happens before any mutation, so a failed admission leaves the
// book exactly as it was.
func (b *Book) AddOrder(order domain.Order) (uint64, error) {
	if order.ID != 0 ||
		!order.Side.Valid() || !order.Type.Valid() ||
		order.Price == 0 || order.Quantity == 0 ||
		order.Remaining == 0 || order.Remaining > order.Quantity {
		return 0, ErrBadOrder
	}
	if b.pool.Full() {
		return 0, ErrPoolFull
	}

	tree := b.tree(order.Side)
	level, found := tree.Get(order.Price)
	if found {
		// Aggregate overflow is checked before anything is mutated.
		if _, err := fixed.CheckedAdd(level.totalQuantity, order.Remaining); err != nil {
			return 0, err
		}
	}

	id := b.nextOrderID
	order.ID = id
	h, err := b.pool.Insert(order)
	if err != nil {
		return 0, err
	}
	if !found {
		level = newPriceLevel(order.Price)
		tree.Put(order.Price, level)
	}
	level.pushBack(b.pool, h)
	b.byID[id] = h
	b.nextOrderID++
	return id, nil
}

// CancelOrder removes a resting order by ID in O(1) expected time and
// returns it. ErrUnknownOrder if the ID is not resting.
func (b *Book) CancelOrder(id uint64) (domain.Order, error) {
	h, ok := b.byID[id]
	if !ok {
		return domain.Order{}, ErrUnknownOrder
	}
	ord, err := b.pool.Get(h)
	if err != nil {
		return domain.Order{}, err
	}
	tree := b.tree(ord.Side)
	level, found := tree.Get(ord.Price)
	if !found {
		panic("orderbook: indexed order without price level")
	}
	level.unlink(b.pool, h)
	level.reduceQuantity(ord.Remaining)
	if level.orderCount == 0 {
		tree.Remove(level.price)
	}
	removed, err := b.pool.Remove(h)
	if err != nil {
		return domain.Order{}, err
	}
	delete(b.byID, id)
	return removed, nil
}

// BestLevel returns the best price level on one side (highest bid, lowest
// ask), or nil when the side is empty. O(log P) worst case.
func (b *Book) BestLevel(side domain.Side) *PriceLevel {
	best := b.tree(side).Left()
	if best == nil {
		return nil
	}
	return best.Value
}

// BestBid returns the highest resting buy price.
func (b *Book) BestBid() (uint64, bool) {
	if l := b.BestLevel(domain.SideBuy); l != nil {
		return l.price, true
	}
	return 0, false
}

// BestAsk returns the lowest resting sell price.
func (b *Book) BestAsk() (uint64, bool) {
	if l := b.BestLevel(domain.SideSell); l != nil {
		return l.price, true
	}
	return 0, false
}

// Spread returns best ask minus best bid when both sides are populated.
func (b *Book) Spread() (uint64, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return ask - bid, true
}

// OrderCount returns the number of resting orders.
func (b *Book) OrderCount() int {
	return len(b.byID)
}

// Depth returns the aggregate resting quantity at one price on one side,
// zero if the level does not exist.
func (b *Book) Depth(price uint64, side domain.Side) uint64 {
	if level, found := b.tree(side).Get(price); found {
		return level.totalQuantity
	}
	return 0
}

// Order returns a copy of the resting order with the given ID.
func (b *Book) Order(id uint64) (domain.Order, bool) {
	h, ok := b.byID[id]
	if !ok {
		return domain.Order{}, false
	}
	ord, err := b.pool.Get(h)
	if err != nil {
		return domain.Order{}, false
	}
	return *ord, true
}

// Levels returns up to max levels of one side in matching order (bids
// descending, asks ascending). Observer path only; not used while matching.
func (b *Book) Levels(side domain.Side, max int) []LevelSnapshot {
	if max <= 0 {
		return nil
	}
	out := make([]LevelSnapshot, 0, max)
	it := b.tree(side).Iterator()
	for it.Next() && len(out) < max {
		l := it.Value()
		out = append(out, LevelSnapshot{Price: l.price, Quantity: l.totalQuantity, Orders: l.orderCount})
	}
	return out
}

// Counters returns (next order ID, next trade ID). Both start at 1 and
// advance monotonically on every admission and emission.
func (b *Book) Counters() (uint64, uint64) {
	return b.nextOrderID, b.nextTradeID
}

// AtCapacity reports whether the pool has no free slot. Matching checks this
// up front: the walk only ever frees slots, so a free slot at entry
// guarantees a residual can rest.
func (b *Book) AtCapacity() bool {
	return b.pool.Full()
}

// ExecuteFill trades the level's FIFO head against the taker: quantity is
// the smaller remaining of the two, price is the maker's resting price.
// Both remainings, the level aggregate and the maker's lifecycle (unlink,
// deindex, free, level teardown when emptied) are updated before returning,
// so the book is consistent after every emitted trade.
//
// The level must be the best level of the maker side and non-empty; callers
// have already established price compatibility.
func (b *Book) ExecuteFill(level *PriceLevel, taker *domain.Order, timestamp uint64) domain.Trade {
	h := level.head
	maker := &b.pool.mustNode(h).order

	traded := taker.Remaining
	if maker.Remaining < traded {
		traded = maker.Remaining
	}

	trade := domain.Trade{
		ID:           b.nextTradeID,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		MakerUserID:  maker.UserID,
		TakerUserID:  taker.UserID,
		Price:        maker.Price,
		Quantity:     traded,
		Timestamp:    timestamp,
	}
	b.nextTradeID++

	taker.Remaining -= traded
	maker.Remaining -= traded
	level.reduceQuantity(traded)

	if maker.Remaining == 0 {
		id := maker.ID
		side := maker.Side
		level.unlink(b.pool, h)
		if level.orderCount == 0 {
			b.tree(side).Remove(level.price)
		}
		if _, err := b.pool.Remove(h); err != nil {
			panic("orderbook: filled maker not in pool")
		}
		delete(b.byID, id)
	}
	return trade
}
