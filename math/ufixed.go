package math

import (
	"math/big"

	"autara/lendingerr"
)

// ufixedFracBits is the number of fractional bits in UFixed's
// ~Q64.64 layout.
const ufixedFracBits = 64

var ufixedScale = new(big.Int).Lsh(big.NewInt(1), ufixedFracBits)

// ufixedMax is the largest representable value: 2^128 - 1 raw bits.
var ufixedMax = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// UFixed is an unsigned fixed-point scalar with 64 fractional bits,
// backed by an arbitrary-precision integer so every operation can be
// checked against the type's true 128-bit range rather than silently
// wrapping. It is the Go analogue of the source's UFixedPoint POD type.
type UFixed struct {
	bits *big.Int // raw Q64.64 bits, always >= 0
}

// ZeroU is the additive identity.
func ZeroU() UFixed { return UFixed{bits: big.NewInt(0)} }

// OneU is the multiplicative identity.
func OneU() UFixed { return UFixed{bits: new(big.Int).Set(ufixedScale)} }

// UFromU64 lifts an integer atoms count into a UFixed with zero
// fractional part.
func UFromU64(v uint64) UFixed {
	bits := new(big.Int).Lsh(new(big.Int).SetUint64(v), ufixedFracBits)
	return UFixed{bits: bits}
}

// UFromBits constructs a UFixed directly from raw Q64.64 bits, as when
// decoding a persisted POD record.
func UFromBits(bits *big.Int) UFixed {
	return UFixed{bits: new(big.Int).Set(bits)}
}

// Bits returns the raw Q64.64 bit pattern.
func (a UFixed) Bits() *big.Int { return new(big.Int).Set(a.bits) }

func (a UFixed) ensure() *big.Int {
	if a.bits == nil {
		return big.NewInt(0)
	}
	return a.bits
}

// IsZero reports whether a is exactly zero.
func (a UFixed) IsZero() bool { return a.ensure().Sign() == 0 }

// Cmp compares a and b the way big.Int.Cmp does.
func (a UFixed) Cmp(b UFixed) int { return a.ensure().Cmp(b.ensure()) }

func (a UFixed) Equal(b UFixed) bool { return a.Cmp(b) == 0 }
func (a UFixed) Less(b UFixed) bool  { return a.Cmp(b) < 0 }
func (a UFixed) Greater(b UFixed) bool { return a.Cmp(b) > 0 }
func (a UFixed) LessOrEqual(b UFixed) bool    { return a.Cmp(b) <= 0 }
func (a UFixed) GreaterOrEqual(b UFixed) bool { return a.Cmp(b) >= 0 }

// Max returns whichever of a, b compares greater.
func (a UFixed) Max(b UFixed) UFixed {
	if a.Less(b) {
		return b
	}
	return a
}

// SafeAdd returns a+b, failing with AdditionOverflow past the 128-bit range.
func (a UFixed) SafeAdd(b UFixed) (UFixed, error) {
	r := new(big.Int).Add(a.ensure(), b.ensure())
	if r.Cmp(ufixedMax) > 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.AdditionOverflow)
	}
	return UFixed{bits: r}, nil
}

// SafeSub returns a-b, failing with SubtractionOverflow if the result
// would be negative (UFixed has no sign bit).
func (a UFixed) SafeSub(b UFixed) (UFixed, error) {
	r := new(big.Int).Sub(a.ensure(), b.ensure())
	if r.Sign() < 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.SubtractionOverflow)
	}
	return UFixed{bits: r}, nil
}

// SafeMul returns a*b with a single rescale by the fixed-point base,
// truncating any sub-unit remainder, failing with MultiplicationOverflow
// past the 128-bit range.
func (a UFixed) SafeMul(b UFixed) (UFixed, error) {
	prod := new(big.Int).Mul(a.ensure(), b.ensure())
	prod.Quo(prod, ufixedScale)
	if prod.Cmp(ufixedMax) > 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.MultiplicationOverflow)
	}
	return UFixed{bits: prod}, nil
}

// SafeDiv returns a/b, failing with DivisionByZero when b is zero and
// DivisionOverflow past the 128-bit range.
func (a UFixed) SafeDiv(b UFixed) (UFixed, error) {
	if b.IsZero() {
		return UFixed{}, lendingerr.WithContext(lendingerr.DivisionByZero)
	}
	num := new(big.Int).Mul(a.ensure(), ufixedScale)
	q := new(big.Int).Quo(num, b.ensure())
	if q.Cmp(ufixedMax) > 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.DivisionOverflow)
	}
	return UFixed{bits: q}, nil
}

// UFromRatio computes num/den as a UFixed, rounding down, the helper
// used to build a utilisation rate from two atom counts.
func UFromRatio(num, den uint64) (UFixed, error) {
	if den == 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.DivisionByZero)
	}
	n := new(big.Int).Lsh(new(big.Int).SetUint64(num), ufixedFracBits)
	d := new(big.Int).SetUint64(den)
	q := new(big.Int).Quo(n, d)
	return UFixed{bits: q}, nil
}

// SafeMulRound returns a*b like SafeMul, but rounds the sub-unit
// remainder according to mode instead of always truncating toward zero.
func (a UFixed) SafeMulRound(b UFixed, mode RoundingMode) (UFixed, error) {
	prod := new(big.Int).Mul(a.ensure(), b.ensure())
	q, r := new(big.Int).QuoRem(prod, ufixedScale, new(big.Int))
	if mode == RoundUp && r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Cmp(ufixedMax) > 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.MultiplicationOverflow)
	}
	return UFixed{bits: q}, nil
}

// SafeDivRound returns a/b like SafeDiv, but rounds the sub-unit
// remainder according to mode instead of always truncating toward zero.
func (a UFixed) SafeDivRound(b UFixed, mode RoundingMode) (UFixed, error) {
	if b.IsZero() {
		return UFixed{}, lendingerr.WithContext(lendingerr.DivisionByZero)
	}
	num := new(big.Int).Mul(a.ensure(), ufixedScale)
	q, r := new(big.Int).QuoRem(num, b.ensure(), new(big.Int))
	if mode == RoundUp && r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Cmp(ufixedMax) > 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.DivisionOverflow)
	}
	return UFixed{bits: q}, nil
}

// ToU64 converts a back to an integer atoms count under the given
// rounding mode, failing with CastOverflow if the integer part does not
// fit in a uint64.
func (a UFixed) ToU64(mode RoundingMode) (uint64, error) {
	bits := a.ensure()
	q, r := new(big.Int).QuoRem(bits, ufixedScale, new(big.Int))
	if mode == RoundUp && r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, lendingerr.WithContext(lendingerr.CastOverflow)
	}
	return q.Uint64(), nil
}

// ToFloat renders a as a float64, for display only — never used in any
// checked arithmetic path.
func (a UFixed) ToFloat() float64 {
	f := new(big.Float).SetInt(a.ensure())
	f.Quo(f, new(big.Float).SetInt(ufixedScale))
	out, _ := f.Float64()
	return out
}

// UMustParse parses a decimal literal into a UFixed, panicking on a
// malformed literal. It exists for compile-time constants in tests and
// default configuration, mirroring the source's `lit("...")` macro.
func UMustParse(s string) UFixed {
	f, ok := new(big.Float).SetPrec(256).SetString(s)
	if !ok {
		panic("math: invalid UFixed literal " + s)
	}
	scaled := new(big.Float).Mul(f, new(big.Float).SetInt(ufixedScale))
	bits, _ := scaled.Int(nil)
	if bits.Sign() < 0 {
		panic("math: negative UFixed literal " + s)
	}
	return UFixed{bits: bits}
}
