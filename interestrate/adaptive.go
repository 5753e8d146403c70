package interestrate

import (
	"autara/lendingerr"
	afixed "autara/math"
)

// curveSteepness is the ratio between the fastest and slowest slope the
// adaptive curve can apply around rate_at_target.
const curveSteepness = 4

var (
	targetUtilisationRate        = afixed.MustParse("0.9")
	oneMinusTargetUtilisationRate = afixed.MustParse("0.1")
	adjustmentSpeedPerSecond      = mustRatio(50, SecondsPerYear)

	initialRateAtTarget = ConstFromAPR(afixed.MustParse("0.04"))
	minRateAtTarget      = ConstFromAPR(afixed.MustParse("0.01"))
	maxRateAtTarget      = ConstFromAPR(afixed.MustParse("2.00"))
)

func mustRatio(num int64, den uint64) afixed.IFixed {
	r, err := afixed.FromRatio(uint64(num), den)
	if err != nil {
		panic("interestrate: adjustment speed ratio is never zero")
	}
	return r
}

// AdaptiveCurve is a Go port of Morpho's AdaptiveCurveIrm: the borrow
// rate tracks a slowly moving rate_at_target that adjusts toward
// whatever level would bring utilisation back to its 90% target, with
// the instantaneous borrow rate itself scaled around rate_at_target by
// how far current utilisation sits from target.
type AdaptiveCurve struct {
	rateAtTarget RatePerSecond
}

// NewAdaptiveCurve returns an AdaptiveCurve with no prior history: its
// first BorrowRatePerSecond call seeds rate_at_target at the curve's
// initial 4% APR.
func NewAdaptiveCurve() *AdaptiveCurve {
	return &AdaptiveCurve{rateAtTarget: ConstFromAPR(afixed.Zero())}
}

// RateAtTarget exposes the curve's current rate_at_target, for
// observability snapshots.
func (c *AdaptiveCurve) RateAtTarget() RatePerSecond { return c.rateAtTarget }

// Clone returns a new AdaptiveCurve carrying the same rate_at_target as
// c, so a caller can speculatively advance a copy's state (e.g. inside
// a snapshot/mutate/commit sequence) without perturbing c.
func (c *AdaptiveCurve) Clone() *AdaptiveCurve {
	return &AdaptiveCurve{rateAtTarget: c.rateAtTarget}
}

func (c *AdaptiveCurve) Kind() Kind { return KindAdaptive }

func (c *AdaptiveCurve) Validate() error { return nil }

func (c *AdaptiveCurve) BorrowRatePerSecond(params BorrowRateParams) (RatePerSecond, error) {
	rateAtTarget, endRateAtTarget, err := c.computeNextRates(params)
	if err != nil {
		return RatePerSecond{}, lendingerr.Track(err)
	}
	c.rateAtTarget = endRateAtTarget
	return rateAtTarget, nil
}

func (c *AdaptiveCurve) computeNextRates(params BorrowRateParams) (rateAtTarget, endRateAtTarget RatePerSecond, err error) {
	errNormFactor := targetUtilisationRate
	if params.UtilisationRate.Greater(targetUtilisationRate) {
		errNormFactor = oneMinusTargetUtilisationRate
	}
	utilErr, err := params.UtilisationRate.SafeSub(targetUtilisationRate)
	if err != nil {
		return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
	}
	utilErr, err = utilErr.SafeDiv(errNormFactor)
	if err != nil {
		return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
	}

	start := c.rateAtTarget
	var avg RatePerSecond
	if start.IsZero() {
		avg = initialRateAtTarget
		endRateAtTarget = initialRateAtTarget
	} else {
		speed, err := adjustmentSpeedPerSecond.SafeMul(utilErr)
		if err != nil {
			return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
		}
		linearAdaptation, err := speed.SafeMul(afixed.FromU64(params.ElapsedSecondsSinceLastUpdate))
		if err != nil {
			return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
		}
		if linearAdaptation.IsZero() {
			avg = start
			endRateAtTarget = start
		} else {
			endRateAtTarget, err = newRateAtTarget(start, linearAdaptation)
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			halfAdaptation, err := linearAdaptation.SafeDiv(afixed.FromU64(2))
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			midRateAtTarget, err := newRateAtTarget(start, halfAdaptation)
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			sum, err := start.Rate.SafeAdd(endRateAtTarget.Rate)
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			midTwice, err := midRateAtTarget.Rate.SafeMul(afixed.FromU64(2))
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			sum, err = sum.SafeAdd(midTwice)
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			avgRate, err := sum.SafeDiv(afixed.FromU64(4))
			if err != nil {
				return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
			}
			avg = NewRatePerSecond(avgRate)
		}
	}
	rateAtTarget, err = curve(avg, utilErr)
	if err != nil {
		return RatePerSecond{}, RatePerSecond{}, lendingerr.Track(err)
	}
	return rateAtTarget, endRateAtTarget, nil
}

// curve scales rateAtTarget by (1 + coeff*err), where coeff is the
// curve's shallow slope (1 - 1/steepness) below target and its steep
// slope (steepness - 1) above target.
func curve(rateAtTarget RatePerSecond, err afixed.IFixed) (RatePerSecond, error) {
	var coeff afixed.IFixed
	if err.IsNegative() {
		inv, e := afixed.One().SafeDiv(afixed.FromU64(curveSteepness))
		if e != nil {
			return RatePerSecond{}, lendingerr.Track(e)
		}
		c, e := afixed.One().SafeSub(inv)
		if e != nil {
			return RatePerSecond{}, lendingerr.Track(e)
		}
		coeff = c
	} else {
		c, e := afixed.FromU64(curveSteepness).SafeSub(afixed.One())
		if e != nil {
			return RatePerSecond{}, lendingerr.Track(e)
		}
		coeff = c
	}
	scaled, e := coeff.SafeMul(err)
	if e != nil {
		return RatePerSecond{}, lendingerr.Track(e)
	}
	factor, e := scaled.SafeAdd(afixed.One())
	if e != nil {
		return RatePerSecond{}, lendingerr.Track(e)
	}
	rate, e := factor.SafeMul(rateAtTarget.Rate)
	if e != nil {
		return RatePerSecond{}, lendingerr.Track(e)
	}
	return NewRatePerSecond(rate), nil
}

// newRateAtTarget grows startRateAtTarget by e^linearAdaptation and
// clamps the result to [minRateAtTarget, maxRateAtTarget].
func newRateAtTarget(start RatePerSecond, linearAdaptation afixed.IFixed) (RatePerSecond, error) {
	growth, err := linearAdaptation.CheckedExp()
	if err != nil {
		return RatePerSecond{}, lendingerr.Track(err)
	}
	grown, err := start.Rate.SafeMul(growth)
	if err != nil {
		return RatePerSecond{}, lendingerr.Track(err)
	}
	return NewRatePerSecond(grown).Clamp(minRateAtTarget, maxRateAtTarget), nil
}
