package math

import (
	"math/big"

	"autara/lendingerr"
)

// ifixedFracBits is the number of fractional bits in IFixed's
// ~Q80.48 layout (80 integer bits including the sign bit, 48 fractional
// bits, 128 bits total).
const ifixedFracBits = 48

var ifixedScale = new(big.Int).Lsh(big.NewInt(1), ifixedFracBits)

var (
	ifixedMax = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	ifixedMin = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// IFixed is a signed fixed-point scalar with 48 fractional bits, backed
// by an arbitrary-precision integer so every operation can be checked
// against the type's true 128-bit signed range. It is the Go analogue
// of the source's IFixedPoint POD type, and is the type LTVs, rates,
// and oracle prices are expressed in.
type IFixed struct {
	bits *big.Int // raw Q80.48 bits, two's-complement range
}

func (a IFixed) ensure() *big.Int {
	if a.bits == nil {
		return big.NewInt(0)
	}
	return a.bits
}

// Zero is the additive identity.
func Zero() IFixed { return IFixed{bits: big.NewInt(0)} }

// One is the multiplicative identity.
func One() IFixed { return IFixed{bits: new(big.Int).Set(ifixedScale)} }

// FromI64 lifts a signed integer into an IFixed with zero fractional part.
func FromI64(v int64) IFixed {
	return IFixed{bits: new(big.Int).Lsh(big.NewInt(v), ifixedFracBits)}
}

// FromU64 lifts an unsigned integer into an IFixed with zero fractional part.
func FromU64(v uint64) IFixed {
	return IFixed{bits: new(big.Int).Lsh(new(big.Int).SetUint64(v), ifixedFracBits)}
}

// FromUFixed narrows an unsigned fixed-point value into a signed one,
// rescaling from UFixed's 64 fractional bits to IFixed's 48.
func FromUFixed(u UFixed) (IFixed, error) {
	rescaled := new(big.Int).Rsh(u.ensure(), ufixedFracBits-ifixedFracBits)
	if rescaled.Cmp(ifixedMax) > 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.CastOverflow)
	}
	return IFixed{bits: rescaled}, nil
}

// ToUFixed widens a non-negative IFixed into an unsigned one, rescaling
// from 48 to 64 fractional bits. Fails with CastOverflow if a is negative.
func (a IFixed) ToUFixed() (UFixed, error) {
	if a.ensure().Sign() < 0 {
		return UFixed{}, lendingerr.WithContext(lendingerr.CastOverflow)
	}
	rescaled := new(big.Int).Lsh(a.ensure(), ufixedFracBits-ifixedFracBits)
	return UFixed{bits: rescaled}, nil
}

// FromBits constructs an IFixed directly from raw Q80.48 bits.
func FromBits(bits *big.Int) IFixed { return IFixed{bits: new(big.Int).Set(bits)} }

// Bits returns the raw Q80.48 bit pattern.
func (a IFixed) Bits() *big.Int { return new(big.Int).Set(a.ensure()) }

// FromRatio computes num/den as an IFixed, the fixed-point analogue of
// a utilisation ratio built from two atom counts.
func FromRatio(num, den uint64) (IFixed, error) {
	if den == 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.DivisionByZero)
	}
	n := new(big.Int).Lsh(new(big.Int).SetUint64(num), ifixedFracBits)
	d := new(big.Int).SetUint64(den)
	return IFixed{bits: new(big.Int).Quo(n, d)}, nil
}

func (a IFixed) IsZero() bool   { return a.ensure().Sign() == 0 }
func (a IFixed) IsNegative() bool { return a.ensure().Sign() < 0 }
func (a IFixed) Cmp(b IFixed) int { return a.ensure().Cmp(b.ensure()) }
func (a IFixed) Equal(b IFixed) bool          { return a.Cmp(b) == 0 }
func (a IFixed) Less(b IFixed) bool           { return a.Cmp(b) < 0 }
func (a IFixed) Greater(b IFixed) bool        { return a.Cmp(b) > 0 }
func (a IFixed) LessOrEqual(b IFixed) bool    { return a.Cmp(b) <= 0 }
func (a IFixed) GreaterOrEqual(b IFixed) bool { return a.Cmp(b) >= 0 }

// Max returns whichever of a, b compares greater.
func (a IFixed) Max(b IFixed) IFixed {
	if a.Less(b) {
		return b
	}
	return a
}

// Min returns whichever of a, b compares smaller.
func (a IFixed) Min(b IFixed) IFixed {
	if a.Greater(b) {
		return b
	}
	return a
}

// Neg returns -a.
func (a IFixed) Neg() IFixed { return IFixed{bits: new(big.Int).Neg(a.ensure())} }

func (a IFixed) checkRange(r *big.Int) (IFixed, error) {
	if r.Cmp(ifixedMax) > 0 || r.Cmp(ifixedMin) < 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.MathOverflow)
	}
	return IFixed{bits: r}, nil
}

// SafeAdd returns a+b, failing with AdditionOverflow past the signed
// 128-bit range.
func (a IFixed) SafeAdd(b IFixed) (IFixed, error) {
	r := new(big.Int).Add(a.ensure(), b.ensure())
	if r.Cmp(ifixedMax) > 0 || r.Cmp(ifixedMin) < 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.AdditionOverflow)
	}
	return IFixed{bits: r}, nil
}

// SafeSub returns a-b, failing with SubtractionOverflow past range.
func (a IFixed) SafeSub(b IFixed) (IFixed, error) {
	r := new(big.Int).Sub(a.ensure(), b.ensure())
	if r.Cmp(ifixedMax) > 0 || r.Cmp(ifixedMin) < 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.SubtractionOverflow)
	}
	return IFixed{bits: r}, nil
}

// SafeMul returns a*b, rescaling by the fixed-point base and truncating
// toward zero, failing with MultiplicationOverflow past range.
func (a IFixed) SafeMul(b IFixed) (IFixed, error) {
	prod := new(big.Int).Mul(a.ensure(), b.ensure())
	prod.Quo(prod, ifixedScale)
	if prod.Cmp(ifixedMax) > 0 || prod.Cmp(ifixedMin) < 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.MultiplicationOverflow)
	}
	return IFixed{bits: prod}, nil
}

// SafeDiv returns a/b, failing with DivisionByZero when b is zero and
// DivisionOverflow past range.
func (a IFixed) SafeDiv(b IFixed) (IFixed, error) {
	if b.IsZero() {
		return IFixed{}, lendingerr.WithContext(lendingerr.DivisionByZero)
	}
	num := new(big.Int).Mul(a.ensure(), ifixedScale)
	q := new(big.Int).Quo(num, b.ensure())
	if q.Cmp(ifixedMax) > 0 || q.Cmp(ifixedMin) < 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.DivisionOverflow)
	}
	return IFixed{bits: q}, nil
}

// ToFloat renders a as a float64, for display only.
func (a IFixed) ToFloat() float64 {
	f := new(big.Float).SetInt(a.ensure())
	f.Quo(f, new(big.Float).SetInt(ifixedScale))
	out, _ := f.Float64()
	return out
}

// MustParse parses a decimal literal into an IFixed, panicking on a
// malformed literal. It exists for compile-time constants, mirroring
// the source's `lit("...")` macro.
func MustParse(s string) IFixed {
	v, ok := tryParse(s)
	if !ok {
		panic("math: invalid IFixed literal " + s)
	}
	return v
}

// Parse parses a decimal literal into an IFixed, returning a
// CastOverflow error for anything MustParse would otherwise panic on. Use this at any boundary where the literal comes from a
// caller rather than source code (e.g. a config patch or RPC request).
func Parse(s string) (IFixed, error) {
	v, ok := tryParse(s)
	if !ok {
		return IFixed{}, lendingerr.WithContext(lendingerr.CastOverflow)
	}
	return v, nil
}

func tryParse(s string) (IFixed, bool) {
	f, ok := new(big.Float).SetPrec(256).SetString(s)
	if !ok {
		return IFixed{}, false
	}
	scaled := new(big.Float).Mul(f, new(big.Float).SetInt(ifixedScale))
	bits, _ := scaled.Int(nil)
	return IFixed{bits: bits}, true
}

// ln2Bits is ln(2) pre-scaled to Q80.48 fixed-point bits, computed once
// at package init to the full precision the Taylor expansion needs.
var ln2Bits = func() *big.Int {
	// ln(2) to 60 significant digits.
	const ln2Decimal = "0.693147180559945309417232121458176568075500134360255254120680"
	f, _ := new(big.Float).SetPrec(256).SetString(ln2Decimal)
	f.Mul(f, new(big.Float).SetInt(ifixedScale))
	bits, _ := f.Int(nil)
	return bits
}()

// minExpInput/maxExpInput bound CheckedExp's domain: below minExpInput
// the true result underflows the Q80.48 grid to exactly zero; above
// maxExpInput the true result would need more than 80 integer bits and
// CheckedExp instead fails with InvalidExpArg, per SPEC_FULL.md §4.1.
var (
	minExpInput = new(big.Int).Neg(new(big.Int).Mul(big.NewInt(48), ln2Bits))
	maxExpInput = new(big.Int).Mul(big.NewInt(80), ln2Bits)
)

// taylorCoefficients are 1/i! for i = 1..6 pre-scaled to Q80.48 bits,
// used by the 7-term (i = 0..6) Taylor expansion of e^r.
var taylorCoefficients = func() []*big.Int {
	facts := []int64{1, 2, 6, 24, 120, 720}
	out := make([]*big.Int, len(facts))
	for i, f := range facts {
		out[i] = new(big.Int).Quo(new(big.Int).Set(ifixedScale), big.NewInt(f))
	}
	return out
}()

// CheckedExp computes e^a with correct rounding to the Q80.48 grid.
//
// Strategy: range-reduce a = q*ln2 + r with r in [-ln2/2, ln2/2], chosen
// by rounding a/ln2 to the nearest integer with ties resolved away from
// zero; evaluate e^r via a 7-term Taylor polynomial around 0; then scale
// the result by 2^q (a bit shift on the fixed-point representation,
// since shifting the raw bits by q multiplies the represented value by
// exactly 2^q). Inputs below ln(2^-48) return zero (the true value
// underflows the grid); inputs above ln(2^80) fail with InvalidExpArg
// (the true value would not fit in the type's integer range); an
// overflowing final shift fails with MathOverflow.
func (a IFixed) CheckedExp() (IFixed, error) {
	x := a.ensure()
	if x.Cmp(minExpInput) < 0 {
		return Zero(), nil
	}
	if x.Cmp(maxExpInput) > 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.InvalidExpArg)
	}

	// q = round(x / ln2), sign-aware tie-break (round half away from zero).
	q := new(big.Int)
	rem := new(big.Int)
	q.QuoRem(x, ln2Bits, rem)
	halfLn2 := new(big.Int).Rsh(ln2Bits, 1)
	absRem := new(big.Int).Abs(rem)
	if absRem.Cmp(halfLn2) >= 0 {
		if x.Sign() >= 0 {
			q.Add(q, big.NewInt(1))
		} else {
			q.Sub(q, big.NewInt(1))
		}
	}

	// r = x - q*ln2, now guaranteed within [-ln2/2, ln2/2].
	r := new(big.Int).Sub(x, new(big.Int).Mul(q, ln2Bits))

	// Taylor series: sum_{i=0}^{6} r^i / i!, evaluated with Horner-style
	// incremental powers of r scaled back to the fixed-point grid at
	// each step.
	sum := new(big.Int).Set(ifixedScale) // term for i = 0
	rPow := new(big.Int).Set(r)          // r^1 scaled
	for i, coeff := range taylorCoefficients {
		term := new(big.Int).Mul(rPow, coeff)
		term.Quo(term, ifixedScale)
		sum.Add(sum, term)
		if i != len(taylorCoefficients)-1 {
			rPow.Mul(rPow, r)
			rPow.Quo(rPow, ifixedScale)
		}
	}

	var shifted *big.Int
	qi := q.Int64()
	if qi >= 0 {
		shifted = new(big.Int).Lsh(sum, uint(qi))
	} else {
		shifted = new(big.Int).Rsh(sum, uint(-qi))
	}
	if shifted.Cmp(ifixedMax) > 0 || shifted.Cmp(ifixedMin) < 0 {
		return IFixed{}, lendingerr.WithContext(lendingerr.MathOverflow)
	}
	return IFixed{bits: shifted}, nil
}
