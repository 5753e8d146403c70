package interestrate

import (
	"testing"

	afixed "autara/math"
)

func approx(t *testing.T, got, want, tol float64) {
	t.Helper()
	if d := got - want; d < -tol || d > tol {
		t.Fatalf("got %v, want %v (tol %v)", got, want, tol)
	}
}

func TestFixedCurveConstant(t *testing.T) {
	c := NewFixedCurve(ApproximateFromAPR(0.05))
	r, err := c.BorrowRatePerSecond(BorrowRateParams{UtilisationRate: afixed.MustParse("0.5")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apr, err := r.ApproximateAPR()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, apr, 0.05, 0.0001)
}

func TestPolylineRejectsBadFirstPoint(t *testing.T) {
	_, err := NewPolylineCurve([]PolylinePoint{{UtilisationRateBps: 100, BorrowRateBps: 200}})
	if err == nil {
		t.Fatalf("expected InvalidCurve for first point not at utilisation zero")
	}
}

func TestPolylineRejectsOutOfOrderPoints(t *testing.T) {
	_, err := NewPolylineCurve([]PolylinePoint{
		{UtilisationRateBps: 0, BorrowRateBps: 200},
		{UtilisationRateBps: 5000, BorrowRateBps: 100},
	})
	if err == nil {
		t.Fatalf("expected InvalidCurve for non-increasing rate")
	}
}

func TestPolylineDefaultIsValid(t *testing.T) {
	if _, err := NewPolylineCurve(DefaultPolylinePoints()); err != nil {
		t.Fatalf("default curve should validate: %v", err)
	}
}

func TestPolylineExtrapolatesPastLastSegment(t *testing.T) {
	c, err := NewPolylineCurve([]PolylinePoint{
		{UtilisationRateBps: 0, BorrowRateBps: 200},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.AprBorrowRateBps(9000); got != 200 {
		t.Fatalf("single-point curve should return its only rate everywhere, got %d", got)
	}
}

func TestPolylineInterpolatesBetweenKnots(t *testing.T) {
	c, err := NewPolylineCurve([]PolylinePoint{
		{UtilisationRateBps: 0, BorrowRateBps: 100},
		{UtilisationRateBps: 1000, BorrowRateBps: 200},
		{UtilisationRateBps: 5000, BorrowRateBps: 1000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.AprBorrowRateBps(3000); got != 600 {
		t.Fatalf("midpoint rate = %d, want 600", got)
	}
	if got := c.AprBorrowRateBps(6000); got != 1200 {
		t.Fatalf("past-end extrapolation = %d, want 1200", got)
	}
}

func TestAdaptiveCurveFirstBorrowAtZeroUtilisation(t *testing.T) {
	c := NewAdaptiveCurve()
	params := BorrowRateParams{
		UtilisationRate:             afixed.MustParse("0"),
		ElapsedSecondsSinceLastUpdate: 90 * 24 * 60 * 60,
	}
	r, err := c.BorrowRatePerSecond(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apr, err := r.ApproximateAPR()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, apr, 0.04/4, 0.0005)
}

func TestAdaptiveCurveFirstBorrowAtFullUtilisation(t *testing.T) {
	c := NewAdaptiveCurve()
	params := BorrowRateParams{
		UtilisationRate:             afixed.MustParse("1"),
		ElapsedSecondsSinceLastUpdate: 90 * 24 * 60 * 60,
	}
	r, err := c.BorrowRatePerSecond(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apr, err := r.ApproximateAPR()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, apr, 0.04*4, 0.0005)
}

func TestAdaptiveCurveStaysAtTargetWhenUtilisationAtTarget(t *testing.T) {
	c := NewAdaptiveCurve()
	params := BorrowRateParams{
		UtilisationRate:             targetUtilisationRate,
		ElapsedSecondsSinceLastUpdate: 24 * 60 * 60,
	}
	if _, err := c.BorrowRatePerSecond(params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apr, err := c.rateAtTarget.ApproximateAPR()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, apr, 0.04, 0.0005)
	params.ElapsedSecondsSinceLastUpdate = 365 * 24 * 60 * 60
	if _, err := c.BorrowRatePerSecond(params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	aprAfter, err := c.rateAtTarget.ApproximateAPR()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, aprAfter, 0.04, 0.0005)
}
