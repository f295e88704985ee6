package fixed

import (
	"errors"
	"math/bits"
	"strconv"
)

// Scale is the fixed-point denominator. Every price and quantity in the
// engine is a non-negative integer count of 10^-8 units.
const Scale uint64 = 100_000_000

// FracDigits is the number of fractional decimal digits carried by a scaled value.
const FracDigits = 8

var (
	// ErrInvalidInput is returned for decimal strings outside the accepted
	// grammar [0-9]+(\.[0-9]{0,8})? and for division by zero.
	ErrInvalidInput = errors.New("fixed: invalid input")

	// ErrOverflow is returned when a result or any intermediate step exceeds
	// the 64-bit scaled range. Values never wrap.
	ErrOverflow = errors.New("fixed: overflow")
)

// ToScaled parses a decimal string into a scaled integer.
// Accepted grammar: [0-9]+(\.[0-9]{0,8})?
// No sign, no exponent, no grouping, at most 8 fractional digits.
// Performance: single pass, no allocation.
func ToScaled(s string) (uint64, error) {
	if len(s) == 0 {
		return 0, ErrInvalidInput
	}

	// Split on the first '.', if any.
	intPart := s
	fracPart := ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart = s[:i]
			fracPart = s[i+1:]
			break
		}
	}

	if len(intPart) == 0 || len(fracPart) > FracDigits {
		return 0, ErrInvalidInput
	}

	var whole uint64
	for i := 0; i < len(intPart); i++ {
		c := intPart[i]
		if c < '0' || c > '9' {
			return 0, ErrInvalidInput
		}
		var carry uint64
		hi, lo := bits.Mul64(whole, 10)
		if hi != 0 {
			return 0, ErrOverflow
		}
		lo, carry = bits.Add64(lo, uint64(c-'0'), 0)
		if carry != 0 {
			return 0, ErrOverflow
		}
		whole = lo
	}

	var frac uint64
	for i := 0; i < len(fracPart); i++ {
		c := fracPart[i]
		if c < '0' || c > '9' {
			return 0, ErrInvalidInput
		}
		frac = frac*10 + uint64(c-'0') // at most 8 digits, cannot overflow
	}
	// Pad missing fractional digits: "1.5" means 1.50000000.
	for i := len(fracPart); i < FracDigits; i++ {
		frac *= 10
	}

	hi, lo := bits.Mul64(whole, Scale)
	if hi != 0 {
		return 0, ErrOverflow
	}
	v, carry := bits.Add64(lo, frac, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return v, nil
}

// FromScaled renders a scaled integer as a decimal string with exactly 8
// fractional digits. Trailing zeros are never trimmed, so the rendering is
// canonical: one scaled value, one string.
func FromScaled(v uint64) string {
	var buf [28]byte
	b := strconv.AppendUint(buf[:0], v/Scale, 10)
	b = append(b, '.')
	frac := v % Scale
	// Fixed-width fractional part, most significant digit first.
	div := Scale / 10
	for div > 0 {
		b = append(b, byte('0'+frac/div))
		frac %= div
		div /= 10
	}
	return string(b)
}

// CheckedMul multiplies two scaled values as reals: (a*b)/Scale with the
// 128-bit intermediate, rounding half away from zero. Returns ErrOverflow if
// the result does not fit the 64-bit scaled range.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= Scale {
		// Quotient would need more than 64 bits.
		return 0, ErrOverflow
	}
	q, r := bits.Div64(hi, lo, Scale)
	// Round half away from zero: r/Scale >= 1/2  <=>  r >= Scale-r.
	if r >= Scale-r {
		if q == ^uint64(0) {
			return 0, ErrOverflow
		}
		q++
	}
	return q, nil
}

// CheckedDiv divides two scaled values as reals: (a*Scale)/b with the 128-bit
// intermediate, rounding half away from zero. Division by zero is
// ErrInvalidInput; a result beyond the 64-bit scaled range is ErrOverflow.
func CheckedDiv(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrInvalidInput
	}
	hi, lo := bits.Mul64(a, Scale)
	if hi >= b {
		return 0, ErrOverflow
	}
	q, r := bits.Div64(hi, lo, b)
	// Round half away from zero: r/b >= 1/2  <=>  r >= b-r.
	if r >= b-r {
		if q == ^uint64(0) {
			return 0, ErrOverflow
		}
		q++
	}
	return q, nil
}

// CheckedAdd adds two scaled values with overflow detection.
func CheckedAdd(a, b uint64) (uint64, error) {
	v, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return v, nil
}

// CheckedSub subtracts b from a with underflow detection.
func CheckedSub(a, b uint64) (uint64, error) {
	v, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return v, nil
}
