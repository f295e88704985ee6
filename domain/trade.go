package domain

import "encoding/binary"

// TradeBinarySize is the exact canonical serialization size of a Trade.
const TradeBinarySize = 64

// Trade is an immutable execution record. Price is always the resting
// (maker) order's price; Quantity is the amount both sides actually
// exchanged; Timestamp is the taker's. Trade IDs are assigned by the book in
// emission order, monotonically from 1.
//
// TakerOrderID is the incoming order's ID at emission time. An aggressive
// order is unadmitted while it matches, so its trades carry TakerOrderID 0;
// only a residual that rests afterwards ever receives an ID.
type Trade struct {
	ID           uint64
	MakerOrderID uint64
	TakerOrderID uint64
	MakerUserID  uint64
	TakerUserID  uint64
	Price        uint64
	Quantity     uint64
	Timestamp    uint64
}

// AppendBinary appends the canonical 64-byte layout to dst and returns the
// extended slice.
func (t *Trade) AppendBinary(dst []byte) []byte {
	var buf [TradeBinarySize]byte
	binary.LittleEndian.PutUint64(buf[0:8], t.ID)
	binary.LittleEndian.PutUint64(buf[8:16], t.MakerOrderID)
	binary.LittleEndian.PutUint64(buf[16:24], t.TakerOrderID)
	binary.LittleEndian.PutUint64(buf[24:32], t.MakerUserID)
	binary.LittleEndian.PutUint64(buf[32:40], t.TakerUserID)
	binary.LittleEndian.PutUint64(buf[40:48], t.Price)
	binary.LittleEndian.PutUint64(buf[48:56], t.Quantity)
	binary.LittleEndian.PutUint64(buf[56:64], t.Timestamp)
	return append(dst, buf[:]...)
}

// MarshalBinary returns the canonical 64-byte layout.
func (t *Trade) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(make([]byte, 0, TradeBinarySize)), nil
}

// UnmarshalBinary decodes the canonical layout, rejecting short input and
// trailing bytes.
func (t *Trade) UnmarshalBinary(data []byte) error {
	if len(data) < TradeBinarySize {
		return ErrTruncated
	}
	if len(data) > TradeBinarySize {
		return ErrTrailingBytes
	}
	t.ID = binary.LittleEndian.Uint64(data[0:8])
	t.MakerOrderID = binary.LittleEndian.Uint64(data[8:16])
	t.TakerOrderID = binary.LittleEndian.Uint64(data[16:24])
	t.MakerUserID = binary.LittleEndian.Uint64(data[24:32])
	t.TakerUserID = binary.LittleEndian.Uint64(data[32:40])
	t.Price = binary.LittleEndian.Uint64(data[40:48])
	t.Quantity = binary.LittleEndian.Uint64(data[48:56])
	t.Timestamp = binary.LittleEndian.Uint64(data[56:64])
	return nil
}
