package lending

// ActionPauses exposes fine-grained switches for pausing individual
// market flows at the engine-service boundary (not a core invariant:
// the core itself has no notion of "paused", only valid/invalid state
// transitions). The ambient services/lending/engine package checks
// these through native/common.Guard before ever constructing a
// MarketWrapper.
type ActionPauses struct {
	Supply    bool
	Borrow    bool
	Repay     bool
	Liquidate bool
}
