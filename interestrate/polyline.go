package interestrate

import (
	"autara/lendingerr"
	afixed "autara/math"
)

// MaxPolylinePoints is the largest number of knots a PolylineCurve may
// carry.
const MaxPolylinePoints = 8

// OneInBps is the fixed-point denominator for a basis-point quantity.
const OneInBps = 10_000

// PolylinePoint is one knot of a piecewise-linear utilisation -> APR
// curve, both axes expressed in basis points.
type PolylinePoint struct {
	UtilisationRateBps uint32
	BorrowRateBps       uint32
}

// PolylineCurve is a piecewise-linear curve through up to
// MaxPolylinePoints knots. The first knot must sit at 0% utilisation
// with a non-zero rate; every subsequent knot must strictly increase
// both utilisation and rate. Utilisation past the last knot
// extrapolates along the final segment rather than clamping.
type PolylineCurve struct {
	points []PolylinePoint
}

// NewPolylineCurve validates points and returns a PolylineCurve over
// them. Trailing points with a zero BorrowRateBps are unused slots and
// are dropped first (the first point is always kept). Fails with
// InvalidCurve if points is empty, exceeds MaxPolylinePoints, does not
// start at utilisation zero with a non-zero rate, or is not strictly
// increasing in both axes.
func NewPolylineCurve(points []PolylinePoint) (*PolylineCurve, error) {
	n := len(points)
	for n > 1 && points[n-1].BorrowRateBps == 0 {
		n--
	}
	c := &PolylineCurve{points: append([]PolylinePoint(nil), points[:n]...)}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *PolylineCurve) Kind() Kind { return KindPolyline }

// Points returns the curve's knots in increasing utilisation order.
func (c *PolylineCurve) Points() []PolylinePoint {
	return append([]PolylinePoint(nil), c.points...)
}

func (c *PolylineCurve) Validate() error {
	if len(c.points) == 0 {
		return lendingerr.WithContext(lendingerr.InvalidCurve)
	}
	if len(c.points) > MaxPolylinePoints {
		return lendingerr.WithContext(lendingerr.InvalidCurve)
	}
	first := c.points[0]
	if first.UtilisationRateBps != 0 || first.BorrowRateBps == 0 {
		return lendingerr.WithContext(lendingerr.InvalidCurve)
	}
	lastUtil := uint32(0)
	lastRate := first.BorrowRateBps
	for _, p := range c.points[1:] {
		if p.UtilisationRateBps <= lastUtil || p.BorrowRateBps <= lastRate {
			return lendingerr.WithContext(lendingerr.InvalidCurve)
		}
		lastUtil = p.UtilisationRateBps
		lastRate = p.BorrowRateBps
	}
	return nil
}

// AprBorrowRateBps returns the curve's APR, in basis points, at the
// given utilisation (also in basis points). Utilisation past the last
// knot extrapolates along the curve's final segment.
func (c *PolylineCurve) AprBorrowRateBps(utilisationRateBps uint32) uint32 {
	start := c.points[0]
	if len(c.points) == 1 {
		return start.BorrowRateBps
	}
	end := c.points[1]
	for _, p := range c.points[2:] {
		if utilisationRateBps < end.UtilisationRateBps {
			break
		}
		start = end
		end = p
	}
	return lineValueAt(start, end, utilisationRateBps)
}

// lineValueAt linearly interpolates (or extrapolates, if
// utilisationRateBps is past end) the rate between start and end.
// Callers must ensure start != end and utilisationRateBps >=
// start.UtilisationRateBps.
func lineValueAt(start, end PolylinePoint, utilisationRateBps uint32) uint32 {
	rise := uint64(end.BorrowRateBps) - uint64(start.BorrowRateBps)
	run := uint64(end.UtilisationRateBps) - uint64(start.UtilisationRateBps)
	delta := uint64(utilisationRateBps) - uint64(start.UtilisationRateBps)
	return start.BorrowRateBps + uint32(rise*delta/run)
}

func (c *PolylineCurve) BorrowRatePerSecond(params BorrowRateParams) (RatePerSecond, error) {
	utilBps, err := utilisationToBps(params.UtilisationRate)
	if err != nil {
		return RatePerSecond{}, lendingerr.Track(err)
	}
	aprBps := c.AprBorrowRateBps(utilBps)
	apr, err := afixed.FromU64(uint64(aprBps)).SafeDiv(afixed.FromU64(OneInBps))
	if err != nil {
		return RatePerSecond{}, lendingerr.Track(err)
	}
	return FromAPR(apr), nil
}

func utilisationToBps(u afixed.IFixed) (uint32, error) {
	scaled, err := u.SafeMul(afixed.FromU64(OneInBps))
	if err != nil {
		return 0, lendingerr.Track(err)
	}
	uf, err := scaled.ToUFixed()
	if err != nil {
		return 0, lendingerr.Track(err)
	}
	v, err := uf.ToU64(afixed.RoundDown)
	if err != nil {
		return 0, lendingerr.Track(err)
	}
	if v > math32Max {
		v = math32Max
	}
	return uint32(v), nil
}

const math32Max = 1<<32 - 1

// DefaultPolylinePoints is the teacher-default two-segment curve: a
// gentle slope to 92% utilisation, then a steep slope to 100%.
func DefaultPolylinePoints() []PolylinePoint {
	return []PolylinePoint{
		{UtilisationRateBps: 0, BorrowRateBps: 2_00},
		{UtilisationRateBps: 92_00, BorrowRateBps: 7_00},
		{UtilisationRateBps: 100_00, BorrowRateBps: 100_00},
	}
}
