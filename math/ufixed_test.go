package math

import (
	"testing"

	"autara/lendingerr"
)

func TestUFixedSafeAddOverflow(t *testing.T) {
	max := UFromBits(ufixedMax)
	_, err := max.SafeAdd(UFromU64(1))
	if err == nil {
		t.Fatalf("expected AdditionOverflow")
	}
	if k, ok := lendingerr.KindOf(err); !ok || k != lendingerr.AdditionOverflow {
		t.Fatalf("got kind %v, ok=%v", k, ok)
	}
}

func TestUFixedSafeSubUnderflow(t *testing.T) {
	if _, err := ZeroU().SafeSub(UFromU64(1)); err == nil {
		t.Fatalf("expected SubtractionOverflow")
	}
}

func TestUFixedSafeDivByZero(t *testing.T) {
	if _, err := OneU().SafeDiv(ZeroU()); err == nil {
		t.Fatalf("expected DivisionByZero")
	}
}

func TestUFixedMulIdentity(t *testing.T) {
	five := UFromU64(5)
	got, err := five.SafeMul(OneU())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(five) {
		t.Fatalf("5*1 = %v, want 5", got.ToFloat())
	}
}

func TestUFixedToU64Rounding(t *testing.T) {
	half, err := UFromU64(1).SafeDiv(UFromU64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	down, err := half.ToU64(RoundDown)
	if err != nil || down != 0 {
		t.Fatalf("round down of 0.5 = %d, %v", down, err)
	}
	up, err := half.ToU64(RoundUp)
	if err != nil || up != 1 {
		t.Fatalf("round up of 0.5 = %d, %v", up, err)
	}
}

func TestUFromRatio(t *testing.T) {
	r, err := UFromRatio(1, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ToFloat() != 0.25 {
		t.Fatalf("1/4 = %v, want 0.25", r.ToFloat())
	}
}
