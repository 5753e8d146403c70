package interestrate

import afixed "autara/math"

// Kind tags which concrete curve a market's configured Curve is, the Go
// stand-in for the source's POD byte-union discriminant (the persisted
// layout itself is out of scope here; only the runtime behavior is).
type Kind uint8

const (
	KindFixed Kind = iota
	KindPolyline
	KindAdaptive
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "Fixed"
	case KindPolyline:
		return "Polyline"
	case KindAdaptive:
		return "Adaptive"
	default:
		return "Unknown"
	}
}

// BorrowRateParams bundles the inputs every curve implementation needs
// to derive the current borrow rate, mirroring
// MarketBorrowRateParameters.
type BorrowRateParams struct {
	UtilisationRate            afixed.IFixed
	ElapsedSecondsSinceLastUpdate uint64
}

// Curve is implemented by every interest-rate model a market can be
// configured with. BorrowRatePerSecond may mutate internal state (the
// adaptive curve's rate_at_target), so it takes a pointer receiver on
// every concrete implementation.
type Curve interface {
	Kind() Kind
	BorrowRatePerSecond(params BorrowRateParams) (RatePerSecond, error)
	Validate() error
}
