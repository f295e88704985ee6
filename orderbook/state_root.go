package orderbook

import (
	"crypto/sha256"
	"encoding/binary"

	"darkbook/domain"
)

// Stream section tags of the state-root preimage. Version bumps when the
// canonical layout changes.
const (
	rootTagBids     = 0x01
	rootTagAsks     = 0x02
	rootTagCounters = 0x03
)

// StateRoot hashes the logical book contents into 32 bytes. It is a pure
// function of the resting orders, their per-level FIFO order and the two ID
// counters - never of pool layout, handle values or hash-map iteration
// order, so two books built through different histories that hold the same
// logical state produce the same root, and independent reimplementations
// can agree on it.
//
// Preimage, hashed with SHA-256:
//
//	0x01
//	bid levels in descending price order:
//	    price u64 LE, then each resting order head-to-tail (50-byte layout)
//	0x02
//	ask levels in ascending price order, same per-level format
//	0x03
//	next order ID u64 LE, next trade ID u64 LE
func (b *Book) StateRoot() [32]byte {
	h := sha256.New()
	var num [8]byte
	var scratch [domain.OrderBinarySize]byte

	h.Write([]byte{rootTagBids})
	b.hashSide(h, domain.SideBuy, num[:], scratch[:0])
	h.Write([]byte{rootTagAsks})
	b.hashSide(h, domain.SideSell, num[:], scratch[:0])

	h.Write([]byte{rootTagCounters})
	binary.LittleEndian.PutUint64(num[:], b.nextOrderID)
	h.Write(num[:])
	binary.LittleEndian.PutUint64(num[:], b.nextTradeID)
	h.Write(num[:])

	var root [32]byte
	h.Sum(root[:0])
	return root
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

// hashSide streams one side: tree iteration yields levels in matching order
// (bids descending, asks ascending), each FIFO walks head to tail.
func (b *Book) hashSide(h hashWriter, side domain.Side, num []byte, scratch []byte) {
	it := b.tree(side).Iterator()
	for it.Next() {
		level := it.Value()
		binary.LittleEndian.PutUint64(num, level.price)
		h.Write(num)
		for cur := level.head; cur != NilHandle; cur = b.pool.mustNode(cur).next {
			h.Write(b.pool.mustNode(cur).order.AppendBinary(scratch))
		}
	}
}
