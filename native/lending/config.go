package lending

import (
	"autara/lendingerr"
	afixed "autara/math"
)

// bpsDenominator is the fixed-point denominator for a basis-point
// quantity.
const bpsDenominator = 10_000

// LtvConfig is the loan-to-value policy for a single market: the
// maximum LTV a borrow or collateral-withdrawal may leave a position
// at, the LTV above which a position becomes liquidatable, and the
// bonus a liquidator earns on seized collateral.
type LtvConfig struct {
	MaxLTV           afixed.IFixed
	UnhealthyLTV     afixed.IFixed
	LiquidationBonus afixed.IFixed
}

// Validate enforces the invariants every LtvConfig update must satisfy.
// prev is the config being replaced, used to check UnhealthyLTV only
// ever increases; pass a zero LtvConfig when validating the very first
// config at market creation.
func (c LtvConfig) Validate(prev LtvConfig) error {
	if !c.MaxLTV.Less(c.UnhealthyLTV) {
		return lendingerr.WithContext(lendingerr.InvalidLtvConfig)
	}
	if !prev.UnhealthyLTV.IsZero() && c.UnhealthyLTV.Less(prev.UnhealthyLTV) {
		return lendingerr.WithContext(lendingerr.InvalidLiquidationLtvShouldDecrease)
	}
	minBonus := afixed.MustParse("0.001")
	maxBonus := afixed.MustParse("0.1")
	if c.LiquidationBonus.Less(minBonus) || c.LiquidationBonus.Greater(maxBonus) {
		return lendingerr.WithContext(lendingerr.InvalidLtvConfig)
	}
	alpha, err := c.LiquidationBonus.SafeAdd(afixed.One())
	if err != nil {
		return lendingerr.Track(err)
	}
	bound, err := c.UnhealthyLTV.SafeMul(alpha)
	if err != nil {
		return lendingerr.Track(err)
	}
	if bound.Greater(afixed.MustParse("0.99")) {
		return lendingerr.WithContext(lendingerr.InvalidLtvConfig)
	}
	return nil
}

// TargetLiquidationLTV is max(MaxLTV, UnhealthyLTV*0.9), the LTV a
// liquidation plan targets once its bonus has been paid.
func (c LtvConfig) TargetLiquidationLTV() (afixed.IFixed, error) {
	scaled, err := c.UnhealthyLTV.SafeMul(afixed.MustParse("0.9"))
	if err != nil {
		return afixed.IFixed{}, lendingerr.Track(err)
	}
	return c.MaxLTV.Max(scaled), nil
}

// MarketConfig is a market's policy: the immutable identity fields set
// at creation, and the curator-updatable risk parameters.
type MarketConfig struct {
	Bump    uint8
	Index   uint64
	Curator PublicKey

	Ltv                 LtvConfig
	MaxUtilisationRate  afixed.IFixed
	MaxSupplyAtoms      uint64
	LendingMarketFeeBps uint16
	ProtocolFeeShareBps uint16
}

// Clone returns a value copy of c; every field is a value type so a
// plain struct copy is already a deep copy, mirroring the teacher's
// Config.Clone contract for callers that assume clone semantics.
func (c MarketConfig) Clone() MarketConfig { return c }

// Validate checks the mutable fields of c against prev (the config
// being replaced).
func (c MarketConfig) Validate(prev MarketConfig) error {
	if err := c.Ltv.Validate(prev.Ltv); err != nil {
		return lendingerr.Track(err)
	}
	if c.MaxUtilisationRate.Greater(afixed.MustParse("0.99")) {
		return lendingerr.WithContext(lendingerr.InvalidMaxUtilisationRate)
	}
	if c.LendingMarketFeeBps > 2000 {
		return lendingerr.WithContext(lendingerr.FeeTooHigh)
	}
	return nil
}

// MarketConfigPatch is a partial update to a MarketConfig: only
// non-nil fields are applied, each re-validated through Validate before
// being committed, so a zero value can never silently clear a setting.
type MarketConfigPatch struct {
	MaxLTV              *afixed.IFixed
	UnhealthyLTV        *afixed.IFixed
	LiquidationBonus    *afixed.IFixed
	MaxUtilisationRate  *afixed.IFixed
	MaxSupplyAtoms      *uint64
	LendingMarketFeeBps *uint16
}

// Apply produces the MarketConfig that results from layering patch onto
// base, without validating it — callers must call Validate on the
// result before committing.
func (patch MarketConfigPatch) Apply(base MarketConfig) MarketConfig {
	out := base
	if patch.MaxLTV != nil {
		out.Ltv.MaxLTV = *patch.MaxLTV
	}
	if patch.UnhealthyLTV != nil {
		out.Ltv.UnhealthyLTV = *patch.UnhealthyLTV
	}
	if patch.LiquidationBonus != nil {
		out.Ltv.LiquidationBonus = *patch.LiquidationBonus
	}
	if patch.MaxUtilisationRate != nil {
		out.MaxUtilisationRate = *patch.MaxUtilisationRate
	}
	if patch.MaxSupplyAtoms != nil {
		out.MaxSupplyAtoms = *patch.MaxSupplyAtoms
	}
	if patch.LendingMarketFeeBps != nil {
		out.LendingMarketFeeBps = *patch.LendingMarketFeeBps
	}
	return out
}

// UpdateConfig validates authority, layers patch onto m.Config, and
// commits the result only if it passes Validate.
func (m *Market) UpdateConfig(caller PublicKey, patch MarketConfigPatch) error {
	if caller != m.Config.Curator {
		return lendingerr.WithContext(lendingerr.InvalidMarketAuthority)
	}
	next := patch.Apply(m.Config)
	if err := next.Validate(m.Config); err != nil {
		return lendingerr.Track(err)
	}
	m.Config = next
	return nil
}

// GlobalConfig is the protocol-wide policy: the admin key (with a
// two-step nomination handoff), the address collecting the protocol's
// fee share, and the default protocol fee share new markets inherit.
type GlobalConfig struct {
	Admin               PublicKey
	NominatedAdmin      *PublicKey
	FeeReceiver         PublicKey
	ProtocolFeeShareBps uint16
}

// Clone returns a deep copy of g; NominatedAdmin is copied through a
// fresh pointer so callers cannot mutate the original via the clone.
func (g GlobalConfig) Clone() GlobalConfig {
	out := g
	if g.NominatedAdmin != nil {
		nominee := *g.NominatedAdmin
		out.NominatedAdmin = &nominee
	}
	return out
}

// EnsureDefaults fills in a zero-value GlobalConfig with safe defaults:
// a 10% protocol fee share and no nominee in flight.
func (g *GlobalConfig) EnsureDefaults() {
	if g.ProtocolFeeShareBps == 0 {
		g.ProtocolFeeShareBps = 1000
	}
	g.NominatedAdmin = nil
}

// GlobalConfigPatch mirrors MarketConfigPatch for protocol-wide fields.
type GlobalConfigPatch struct {
	FeeReceiver         *PublicKey
	ProtocolFeeShareBps *uint16
}

// UpdateGlobalConfig validates caller is the current admin, applies
// patch, and commits.
func (g *GlobalConfig) UpdateGlobalConfig(caller PublicKey, patch GlobalConfigPatch) error {
	if caller != g.Admin {
		return lendingerr.WithContext(lendingerr.InvalidProtocolAuthority)
	}
	if patch.ProtocolFeeShareBps != nil && *patch.ProtocolFeeShareBps > bpsDenominator {
		return lendingerr.WithContext(lendingerr.FeeTooHigh)
	}
	if patch.FeeReceiver != nil {
		g.FeeReceiver = *patch.FeeReceiver
	}
	if patch.ProtocolFeeShareBps != nil {
		g.ProtocolFeeShareBps = *patch.ProtocolFeeShareBps
	}
	return nil
}

// SetNominatedAdmin stores nominee as the pending admin handoff target;
// only the current admin may call it.
func (g *GlobalConfig) SetNominatedAdmin(caller, nominee PublicKey) error {
	if caller != g.Admin {
		return lendingerr.WithContext(lendingerr.InvalidProtocolAuthority)
	}
	n := nominee
	g.NominatedAdmin = &n
	return nil
}

// UpgradeNomination promotes caller to admin; it succeeds only if
// caller matches the stored nominee.
func (g *GlobalConfig) UpgradeNomination(caller PublicKey) error {
	if g.NominatedAdmin == nil || *g.NominatedAdmin != caller {
		return lendingerr.WithContext(lendingerr.InvalidNomination)
	}
	g.Admin = caller
	g.NominatedAdmin = nil
	return nil
}
