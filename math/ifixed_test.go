package math

import (
	"math"
	"testing"

	"autara/lendingerr"
)

func approxEqual(t *testing.T, got IFixed, want float64, tol float64) {
	t.Helper()
	if d := got.ToFloat() - want; d < -tol || d > tol {
		t.Fatalf("got %v, want %v (tol %v)", got.ToFloat(), want, tol)
	}
}

func TestCheckedExpZero(t *testing.T) {
	r, err := Zero().CheckedExp()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxEqual(t, r, 1.0, 1e-12)
}

func TestCheckedExpOne(t *testing.T) {
	r, err := One().CheckedExp()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxEqual(t, r, math.E, 1e-9)
}

func TestCheckedExpNegative(t *testing.T) {
	r, err := FromI64(-3).CheckedExp()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxEqual(t, r, math.Exp(-3), 1e-9)
}

func TestCheckedExpLargePositive(t *testing.T) {
	r, err := FromI64(40).CheckedExp()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxEqual(t, r, math.Exp(40), math.Exp(40)*1e-6)
}

func TestCheckedExpUnderflowsToZero(t *testing.T) {
	r, err := FromI64(-40).CheckedExp()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.IsZero() {
		t.Fatalf("exp(-40) should underflow the grid to zero, got %v", r.ToFloat())
	}
}

func TestCheckedExpAboveDomainFails(t *testing.T) {
	_, err := FromI64(100).CheckedExp()
	if err == nil {
		t.Fatalf("expected InvalidExpArg")
	}
	if k, ok := lendingerr.KindOf(err); !ok || k != lendingerr.InvalidExpArg {
		t.Fatalf("got kind %v, ok=%v", k, ok)
	}
}

func TestFromUFixedRoundTrip(t *testing.T) {
	u := UFromU64(42)
	i, err := FromUFixed(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := i.ToUFixed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(u) {
		t.Fatalf("round trip mismatch: %v != %v", back.ToFloat(), u.ToFloat())
	}
}

func TestToUFixedNegativeFails(t *testing.T) {
	_, err := FromI64(-1).ToUFixed()
	if err == nil {
		t.Fatalf("expected CastOverflow for negative IFixed")
	}
}
