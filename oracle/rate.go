// Package oracle implements Pyth-style price decoding, staleness and
// confidence validation, and the asymmetric conservative valuation used
// by every LTV-sensitive operation: collateral is valued at its lower
// price bound, borrowed value at its upper bound.
package oracle

import (
	"fmt"

	"autara/lendingerr"
	afixed "autara/math"
)

// positivePowersOfTen[i] is 10^i as an IFixed, precomputed for the
// decimal-shift conversions every value/atoms helper performs.
var positivePowersOfTen = func() []afixed.IFixed {
	const maxExpo = 18
	out := make([]afixed.IFixed, maxExpo+1)
	pow := afixed.One()
	ten := afixed.FromU64(10)
	for i := 0; i <= maxExpo; i++ {
		out[i] = pow
		var err error
		pow, err = pow.SafeMul(ten)
		if err != nil {
			panic("oracle: power-of-ten table overflowed")
		}
	}
	return out
}()

// Rate represents the price of one unit of an asset as rate +/-
// confidence, e.g. rate=123, confidence=5 means a price of 123 +/- 5
// units of quote currency per unit of base asset.
type Rate struct {
	rate       afixed.IFixed
	confidence afixed.IFixed
}

// NewRate builds a Rate directly from an already-scaled rate and
// confidence.
func NewRate(rate, confidence afixed.IFixed) Rate {
	return Rate{rate: rate, confidence: confidence}
}

// RateFromPriceExpoConf decodes a Pyth-style {price, conf, expo} triple
// into a Rate, scaling both price and confidence by 10^expo.
func RateFromPriceExpoConf(price, confidence uint64, expo int8) (Rate, error) {
	absExpo := expo
	if absExpo < 0 {
		absExpo = -absExpo
	}
	if int(absExpo) >= len(positivePowersOfTen) {
		return Rate{}, lendingerr.WithContext(lendingerr.CastOverflow)
	}
	expoPow := positivePowersOfTen[absExpo]
	scale := func(v afixed.IFixed) (afixed.IFixed, error) {
		if expo <= 0 {
			return v.SafeDiv(expoPow)
		}
		return v.SafeMul(expoPow)
	}
	rate, err := scale(afixed.FromU64(price))
	if err != nil {
		return Rate{}, lendingerr.Track(err)
	}
	conf, err := scale(afixed.FromU64(confidence))
	if err != nil {
		return Rate{}, lendingerr.Track(err)
	}
	return Rate{rate: rate, confidence: conf}, nil
}

func (r Rate) Rate() afixed.IFixed       { return r.rate }
func (r Rate) Confidence() afixed.IFixed { return r.confidence }

// LowerBoundRate is rate-confidence, the conservative valuation of an
// asset held as collateral.
func (r Rate) LowerBoundRate() (afixed.IFixed, error) {
	v, err := r.rate.SafeSub(r.confidence)
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

// UpperBoundRate is rate+confidence, the conservative valuation of an
// asset held as debt.
func (r Rate) UpperBoundRate() (afixed.IFixed, error) {
	v, err := r.rate.SafeAdd(r.confidence)
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

// RelativeConfidence is confidence/rate, e.g. 1.6/150 ~= 1.06%.
func (r Rate) RelativeConfidence() (afixed.IFixed, error) {
	v, err := r.confidence.SafeDiv(r.rate)
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

// CollateralValue prices amount atoms (at the given decimals) held as
// collateral, at the conservative lower price bound.
func (r Rate) CollateralValue(amount uint64, decimals uint8) (afixed.IFixed, error) {
	lower, err := r.LowerBoundRate()
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err := lower.SafeMul(afixed.FromU64(amount))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err = v.SafeDiv(positivePowerOfTen(decimals))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

// CollateralAtoms inverts CollateralValue: how many atoms (at the given
// decimals) are worth value, at the conservative lower price bound.
func (r Rate) CollateralAtoms(value afixed.IFixed, decimals uint8) (afixed.IFixed, error) {
	lower, err := r.LowerBoundRate()
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err := value.SafeMul(positivePowerOfTen(decimals))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err = v.SafeDiv(lower)
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

// BorrowValue prices amount atoms (at the given decimals) held as debt,
// at the conservative upper price bound.
func (r Rate) BorrowValue(amount uint64, decimals uint8) (afixed.IFixed, error) {
	upper, err := r.UpperBoundRate()
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err := upper.SafeMul(afixed.FromU64(amount))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err = v.SafeDiv(positivePowerOfTen(decimals))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

// BorrowAtoms inverts BorrowValue: how many atoms (at the given
// decimals) of debt correspond to value, at the conservative upper
// price bound.
func (r Rate) BorrowAtoms(value afixed.IFixed, decimals uint8) (afixed.IFixed, error) {
	upper, err := r.UpperBoundRate()
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err := value.SafeMul(positivePowerOfTen(decimals))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	v, err = v.SafeDiv(upper)
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return v, nil
}

func positivePowerOfTen(decimals uint8) afixed.IFixed {
	if int(decimals) < len(positivePowersOfTen) {
		return positivePowersOfTen[decimals]
	}
	panic(fmt.Sprintf("oracle: unsupported decimals %d", decimals))
}

func (r Rate) String() string {
	return fmt.Sprintf("Rate(%.9f +/- %.6f)", r.rate.ToFloat(), r.confidence.ToFloat())
}
