package domain

import "encoding/binary"

// ReceiptBinarySize is the exact canonical serialization size of an
// ExecutionReceipt.
const ReceiptBinarySize = 64

// ExecutionReceipt certifies one executed batch: how many orders went in,
// how many trades came out, and the state root of the book afterwards. The
// engine itself only provides the state-root function; receipts are emitted
// by the batch layer that drives it (see package gateway).
type ExecutionReceipt struct {
	BatchID         uint64
	OrdersProcessed uint64
	TradesExecuted  uint64
	StateRoot       [32]byte
	Timestamp       uint64
}

// AppendBinary appends the canonical 64-byte layout to dst and returns the
// extended slice.
func (r *ExecutionReceipt) AppendBinary(dst []byte) []byte {
	var buf [ReceiptBinarySize]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.BatchID)
	binary.LittleEndian.PutUint64(buf[8:16], r.OrdersProcessed)
	binary.LittleEndian.PutUint64(buf[16:24], r.TradesExecuted)
	copy(buf[24:56], r.StateRoot[:])
	binary.LittleEndian.PutUint64(buf[56:64], r.Timestamp)
	return append(dst, buf[:]...)
}

// MarshalBinary returns the canonical 64-byte layout.
func (r *ExecutionReceipt) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, ReceiptBinarySize)), nil
}

// UnmarshalBinary decodes the canonical layout, rejecting short input and
// trailing bytes.
func (r *ExecutionReceipt) UnmarshalBinary(data []byte) error {
	if len(data) < ReceiptBinarySize {
		return ErrTruncated
	}
	if len(data) > ReceiptBinarySize {
		return ErrTrailingBytes
	}
	r.BatchID = binary.LittleEndian.Uint64(data[0:8])
	r.OrdersProcessed = binary.LittleEndian.Uint64(data[8:16])
	r.TradesExecuted = binary.LittleEndian.Uint64(data[16:24])
	copy(r.StateRoot[:], data[24:56])
	r.Timestamp = binary.LittleEndian.Uint64(data[56:64])
	return nil
}
