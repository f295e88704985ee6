package orderbook

import (
	"errors"

	"darkbook/domain"
)

// Handle is a stable opaque name for a live node in the order pool. Handles
// are plain integers so they can be stored across data structures without
// ownership ambiguity. A handle may be reused after its node is removed;
// holders must not retain handles across removal.
type Handle int32

// NilHandle is the absent handle (list terminator).
const NilHandle Handle = -1

// ErrInvalidHandle is returned for a handle that was never issued or whose
// node has already been removed.
var ErrInvalidHandle = errors.New("orderbook: invalid handle")

// node is one pool slot: an order plus the intrusive prev/next links of the
// FIFO queue it is enqueued in. Keeping the links inside the slot keeps all
// nodes in one contiguous allocation for cache locality.
type node struct {
	order domain.Order
	prev  Handle
	next  Handle
	live  bool
}

// Pool is a bounded, pre-allocated pool of order nodes. Insert and Remove
// are O(1): a free-slot stack recycles removed slots. Once constructed the
// pool never reallocates, so the hot path cannot fault; when every slot is
// live, Insert reports ErrPoolFull.
type Pool struct {
	nodes []node
	free  []Handle
	used  int
}

// NewPool pre-allocates storage for capacity nodes.
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		nodes: make([]node, 0, capacity),
		free:  make([]Handle, 0, capacity),
	}
}

// Insert stores an order in a free slot and returns its handle. O(1).
func (p *Pool) Insert(order domain.Order) (Handle, error) {
	var h Handle
	switch {
	case len(p.free) > 0:
		h = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.nodes[h] = node{order: order, prev: NilHandle, next: NilHandle, live: true}
	case len(p.nodes) < cap(p.nodes):
		h = Handle(len(p.nodes))
		p.nodes = append(p.nodes, node{order: order, prev: NilHandle, next: NilHandle, live: true})
	default:
		return NilHandle, ErrPoolFull
	}
	p.used++
	return h, nil
}

// Remove frees the node named by h and returns its order. O(1). The handle
// is invalid afterwards and may be reissued by a later Insert.
func (p *Pool) Remove(h Handle) (domain.Order, error) {
	n, err := p.at(h)
	if err != nil {
		return domain.Order{}, err
	}
	order := n.order
	*n = node{prev: NilHandle, next: NilHandle}
	p.free = append(p.free, h)
	p.used--
	return order, nil
}

// Get returns the order stored under h for reading or in-place mutation.
func (p *Pool) Get(h Handle) (*domain.Order, error) {
	n, err := p.at(h)
	if err != nil {
		return nil, err
	}
	return &n.order, nil
}

// Len returns the number of live nodes.
func (p *Pool) Len() int { return p.used }

// Cap returns the fixed capacity supplied at construction.
func (p *Pool) Cap() int { return cap(p.nodes) }

// Full reports whether every slot is live.
func (p *Pool) Full() bool { return p.used == cap(p.nodes) }

func (p *Pool) at(h Handle) (*node, error) {
	if h < 0 || int(h) >= len(p.nodes) || !p.nodes[h].live {
		return nil, ErrInvalidHandle
	}
	return &p.nodes[h], nil
}

// link accessors for the intrusive queue; callers guarantee live handles.

func (p *Pool) mustNode(h Handle) *node {
	if h < 0 || int(h) >= len(p.nodes) || !p.nodes[h].live {
		panic("orderbook: dead handle in queue")
	}
	return &p.nodes[h]
}
