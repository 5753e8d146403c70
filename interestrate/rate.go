// Package interestrate implements the per-market interest-rate curves:
// a constant rate, a piecewise-linear utilisation curve, and the
// Morpho-style adaptive curve, all producing a RatePerSecond a vault
// compounds over elapsed time via IFixed.CheckedExp.
package interestrate

import (
	"math"
	"strconv"

	"autara/lendingerr"
	afixed "autara/math"
)

// SecondsPerYear is the constant used to convert between an annualised
// rate and a per-second one throughout this package.
const SecondsPerYear uint64 = 365 * 24 * 60 * 60

// RatePerSecond is a continuously-compounding rate expressed per
// second, the unit every curve implementation produces and every vault
// integrates over elapsed time.
type RatePerSecond struct {
	Rate afixed.IFixed
}

// NewRatePerSecond wraps rate as a RatePerSecond.
func NewRatePerSecond(rate afixed.IFixed) RatePerSecond {
	return RatePerSecond{Rate: rate}
}

// FromAPR converts an annual percentage rate into a per-second rate by
// dividing evenly across the year.
func FromAPR(apr afixed.IFixed) RatePerSecond {
	rate, err := apr.SafeDiv(afixed.FromU64(SecondsPerYear))
	if err != nil {
		panic("interestrate: SecondsPerYear is never zero")
	}
	return RatePerSecond{Rate: rate}
}

// ConstFromAPR is the compile-time constant constructor used to seed
// curve defaults, mirroring the source's const_from_apr.
func ConstFromAPR(apr afixed.IFixed) RatePerSecond {
	return FromAPR(apr)
}

// IsZero reports whether the rate is exactly zero.
func (r RatePerSecond) IsZero() bool { return r.Rate.IsZero() }

// Clamp restricts r to [min, max].
func (r RatePerSecond) Clamp(min, max RatePerSecond) RatePerSecond {
	if r.Rate.Less(min.Rate) {
		return min
	}
	if r.Rate.Greater(max.Rate) {
		return max
	}
	return r
}

// CompoundingInterestRateDuringElapsedSeconds returns the multiplicative
// growth factor minus one accrued by compounding r continuously over
// elapsedSeconds, i.e. e^(r*elapsedSeconds) - 1.
func (r RatePerSecond) CompoundingInterestRateDuringElapsedSeconds(elapsedSeconds uint64) (afixed.IFixed, error) {
	exponent, err := r.Rate.SafeMul(afixed.FromU64(elapsedSeconds))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	grown, err := exponent.CheckedExp()
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	rate, err := grown.SafeSub(afixed.One())
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return rate, nil
}

// ApproximateFromAPY builds a per-second rate from a target annual
// percentage yield, for display and off-chain estimation only: it goes
// through float64 math rather than the checked fixed-point path.
func ApproximateFromAPY(apy float64) RatePerSecond {
	rate := afixed.MustParse(strconv.FormatFloat(math.Log(apy+1), 'f', -1, 64))
	perSecond, err := rate.SafeDiv(afixed.FromU64(SecondsPerYear))
	if err != nil {
		panic("interestrate: SecondsPerYear is never zero")
	}
	return RatePerSecond{Rate: perSecond}
}

// ApproximateFromAPR builds a per-second rate from a target annual
// percentage rate, for display and off-chain estimation only.
func ApproximateFromAPR(apr float64) RatePerSecond {
	lit := strconv.FormatFloat(apr/float64(SecondsPerYear), 'f', -1, 64)
	return RatePerSecond{Rate: afixed.MustParse(lit)}
}

// ApproximateAPY renders r's implied annual percentage yield as a
// float64, for display only.
func (r RatePerSecond) ApproximateAPY() (float64, error) {
	rate, err := r.Rate.SafeMul(afixed.FromU64(SecondsPerYear))
	if err != nil {
		return 0, lendingerr.Track(err)
	}
	return math.Exp(rate.ToFloat()) - 1, nil
}

// ApproximateAPR renders r's implied annual percentage rate as a
// float64, for display only.
func (r RatePerSecond) ApproximateAPR() (float64, error) {
	rate, err := r.Rate.SafeMul(afixed.FromU64(SecondsPerYear))
	if err != nil {
		return 0, lendingerr.Track(err)
	}
	return rate.ToFloat(), nil
}

// AdjustForUtilisationRate scales a borrow rate down to the
// corresponding lender rate by the pool's utilisation fraction.
func (r RatePerSecond) AdjustForUtilisationRate(utilisationRate afixed.IFixed) (RatePerSecond, error) {
	scaled, err := r.Rate.SafeMul(utilisationRate)
	if err != nil {
		return RatePerSecond{}, lendingerr.Track(err)
	}
	return RatePerSecond{Rate: scaled}, nil
}
