package domain

import "encoding/binary"

// Side represents the order side (Buy or Sell).
// The numeric values are part of the wire format and must not change.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

// Valid reports whether the side is a known wire tag.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// OrderType represents the type of order. The core supports resting limit
// orders only; the tag byte is kept on the wire so the layout does not change
// when more types appear.
type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
)

// Valid reports whether the order type is a known wire tag.
func (t OrderType) Valid() bool {
	return t == OrderTypeLimit
}

// OrderBinarySize is the exact canonical serialization size of an Order.
const OrderBinarySize = 50

// Order represents a limit order. All prices and quantities are scaled
// integers (10^-8 units, see package fixed). There is no floating point and
// no clock anywhere: Timestamp is supplied by the caller in scaled
// milliseconds and never read from the host.
//
// ID is zero until the book admits the order; the book is authoritative for
// ID assignment. Side, Type, Price, Quantity and Timestamp are immutable
// after admission; only Remaining changes, monotonically downward on fills.
type Order struct {
	ID        uint64
	UserID    uint64
	Side      Side
	Type      OrderType
	Price     uint64
	Quantity  uint64
	Remaining uint64
	Timestamp uint64
}

// NewLimitOrder builds an unadmitted limit order (ID 0, Remaining == Quantity).
func NewLimitOrder(userID uint64, side Side, price, quantity, timestamp uint64) Order {
	return Order{
		UserID:    userID,
		Side:      side,
		Type:      OrderTypeLimit,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		Timestamp: timestamp,
	}
}

// IsFilled returns true if the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

// FilledQuantity returns the executed part of the original quantity.
func (o *Order) FilledQuantity() uint64 {
	return o.Quantity - o.Remaining
}

// AppendBinary appends the canonical 50-byte layout to dst and returns the
// extended slice. Fields are concatenated in declaration order, little-endian,
// no padding. Same logical value, identical bytes, on every host.
func (o *Order) AppendBinary(dst []byte) []byte {
	var buf [OrderBinarySize]byte
	binary.LittleEndian.PutUint64(buf[0:8], o.ID)
	binary.LittleEndian.PutUint64(buf[8:16], o.UserID)
	buf[16] = byte(o.Side)
	buf[17] = byte(o.Type)
	binary.LittleEndian.PutUint64(buf[18:26], o.Price)
	binary.LittleEndian.PutUint64(buf[26:34], o.Quantity)
	binary.LittleEndian.PutUint64(buf[34:42], o.Remaining)
	binary.LittleEndian.PutUint64(buf[42:50], o.Timestamp)
	return append(dst, buf[:]...)
}

// MarshalBinary returns the canonical 50-byte layout.
func (o *Order) MarshalBinary() ([]byte, error) {
	return o.AppendBinary(make([]byte, 0, OrderBinarySize)), nil
}

// UnmarshalBinary decodes the canonical layout, rejecting short input,
// trailing bytes, unknown enum tags and a Remaining that exceeds Quantity.
func (o *Order) UnmarshalBinary(data []byte) error {
	if len(data) < OrderBinarySize {
		return ErrTruncated
	}
	if len(data) > OrderBinarySize {
		return ErrTrailingBytes
	}
	side := Side(data[16])
	typ := OrderType(data[17])
	if !side.Valid() || !typ.Valid() {
		return ErrInvalidEnumTag
	}
	quantity := binary.LittleEndian.Uint64(data[26:34])
	remaining := binary.LittleEndian.Uint64(data[34:42])
	if remaining > quantity {
		return ErrInvariantViolation
	}
	o.ID = binary.LittleEndian.Uint64(data[0:8])
	o.UserID = binary.LittleEndian.Uint64(data[8:16])
	o.Side = side
	o.Type = typ
	o.Price = binary.LittleEndian.Uint64(data[18:26])
	o.Quantity = quantity
	o.Remaining = remaining
	o.Timestamp = binary.LittleEndian.Uint64(data[42:50])
	return nil
}
