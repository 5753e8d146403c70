package lending

import (
	"autara/interestrate"
	"autara/lendingerr"
	afixed "autara/math"
	"autara/oracle"
)

// CloneCurve returns a copy of c that does not share mutable state with
// it. FixedCurve and PolylineCurve carry no call-to-call state and are
// returned as-is; AdaptiveCurve owns rate_at_target, which every
// MarketWrapper operation must be free to mutate on a scratch copy
// without perturbing the Market the caller still holds.
func CloneCurve(c interestrate.Curve) interestrate.Curve {
	if curve, ok := c.(*interestrate.AdaptiveCurve); ok {
		return curve.Clone()
	}
	return c
}

// CreateMarket builds a fresh Market for the given mints, oracle
// configs, curve, ltv config, and curator. It validates the ltv config,
// the curve, and both mints' decimals before returning.
func CreateMarket(
	index uint64,
	curator PublicKey,
	supplyMint, collateralMint PublicKey,
	supplyMintDecimals, collateralMintDecimals uint8,
	supplyVault, collateralVault PublicKey,
	supplyOracleAccount, collateralOracleAccount PublicKey,
	supplyOracleConfig, collateralOracleConfig oracle.ValidationConfig,
	curve interestrate.Curve,
	ltv LtvConfig,
	maxUtilisationRate afixed.IFixed,
	maxSupplyAtoms uint64,
	lendingMarketFeeBps uint16,
	protocolFeeShareBps uint16,
) (Market, error) {
	if supplyMintDecimals > 18 || collateralMintDecimals > 18 {
		return Market{}, lendingerr.WithContext(lendingerr.UnsupportedMintDecimals)
	}
	if err := curve.Validate(); err != nil {
		return Market{}, lendingerr.Track(err)
	}
	config := MarketConfig{
		Index:               index,
		Curator:             curator,
		Ltv:                 ltv,
		MaxUtilisationRate:  maxUtilisationRate,
		MaxSupplyAtoms:      maxSupplyAtoms,
		LendingMarketFeeBps: lendingMarketFeeBps,
		ProtocolFeeShareBps: protocolFeeShareBps,
	}
	if err := config.Validate(MarketConfig{}); err != nil {
		return Market{}, lendingerr.Track(err)
	}
	return Market{
		Config: config,
		Supply: SupplyVault{
			Supply:        afixed.NewSharesTracker(),
			Borrow:        afixed.NewSharesTracker(),
			Curve:         curve,
			Mint:          supplyMint,
			MintDecimals:  supplyMintDecimals,
			Vault:         supplyVault,
			OracleAccount: supplyOracleAccount,
			OracleConfig:  supplyOracleConfig,
		},
		Collateral: CollateralVault{
			Mint:          collateralMint,
			MintDecimals:  collateralMintDecimals,
			Vault:         collateralVault,
			OracleAccount: collateralOracleAccount,
			OracleConfig:  collateralOracleConfig,
		},
	}, nil
}

// SyncClock advances the market's interest-accrual clock to now. If now
// does not exceed the last recorded timestamp, it is a no-op. Otherwise
// it compounds the curve's per-second borrow rate over the elapsed
// window, applies it to the borrow tracker, derives the lender rate by
// scaling by utilisation, applies that to the supply tracker (splitting
// the market's fee fraction into protocol vs. curator pending shares),
// and advances last_update_unix_timestamp.
func (m *Market) SyncClock(now int64) error {
	if now <= m.Supply.LastUpdateUnixTimestamp {
		return nil
	}
	elapsed := uint64(now - m.Supply.LastUpdateUnixTimestamp)

	util, err := m.Utilisation()
	if err != nil {
		return lendingerr.Track(err)
	}
	rate, err := m.Supply.Curve.BorrowRatePerSecond(interestrate.BorrowRateParams{
		UtilisationRate:               util,
		ElapsedSecondsSinceLastUpdate: elapsed,
	})
	if err != nil {
		return lendingerr.Track(err)
	}

	borrowGrowth, err := rate.CompoundingInterestRateDuringElapsedSeconds(elapsed)
	if err != nil {
		return lendingerr.Track(err)
	}
	borrowFactor, err := toGrowthFactor(borrowGrowth)
	if err != nil {
		return lendingerr.Track(err)
	}
	if err := m.Supply.Borrow.ApplyInterestRate(borrowFactor); err != nil {
		return lendingerr.Track(err)
	}

	lenderRate, err := rate.AdjustForUtilisationRate(util)
	if err != nil {
		return lendingerr.Track(err)
	}
	lenderGrowth, err := lenderRate.CompoundingInterestRateDuringElapsedSeconds(elapsed)
	if err != nil {
		return lendingerr.Track(err)
	}
	feeFraction, ferr := afixed.FromU64(uint64(m.Config.LendingMarketFeeBps)).SafeDiv(afixed.FromU64(bpsDenominator))
	if ferr != nil {
		return lendingerr.Track(ferr)
	}
	feeFractionU, uerr2 := feeFraction.ToUFixed()
	if uerr2 != nil {
		return lendingerr.Track(uerr2)
	}
	// A negative lender rate carries no accrued interest to carve a fee
	// out of: ApplyInterestRateWithFee applies it in full and reports
	// NegativeInterestRate, which aborts this sync the same way the
	// original's sync_clock propagates it — the caller must discard m on
	// error rather than rely on an internal rollback.
	feeShares, ferr2 := m.Supply.Supply.ApplyInterestRateWithFee(lenderGrowth, feeFractionU)
	if ferr2 != nil {
		return lendingerr.Track(ferr2)
	}
	if !feeShares.IsZero() {
		protocolFraction, perr := afixed.FromU64(uint64(m.Config.ProtocolFeeShareBps)).SafeDiv(afixed.FromU64(bpsDenominator))
		if perr != nil {
			return lendingerr.Track(perr)
		}
		protocolFractionU, perr2 := protocolFraction.ToUFixed()
		if perr2 != nil {
			return lendingerr.Track(perr2)
		}
		protocolShares, perr3 := feeShares.SafeMul(protocolFractionU)
		if perr3 != nil {
			return lendingerr.Track(perr3)
		}
		curatorShares, perr4 := feeShares.SafeSub(protocolShares)
		if perr4 != nil {
			return lendingerr.Track(perr4)
		}
		newProtocolPending, perr5 := m.Supply.PendingProtocolFeeShares.SafeAdd(protocolShares)
		if perr5 != nil {
			return lendingerr.Track(perr5)
		}
		newCuratorPending, perr6 := m.Supply.PendingCuratorFeeShares.SafeAdd(curatorShares)
		if perr6 != nil {
			return lendingerr.Track(perr6)
		}
		m.Supply.PendingProtocolFeeShares = newProtocolPending
		m.Supply.PendingCuratorFeeShares = newCuratorPending
	}

	m.Supply.LastBorrowInterestRate = rate
	m.Supply.LastUpdateUnixTimestamp = now
	return nil
}

// toGrowthFactor converts a compounding delta (e^(rt) - 1, an IFixed
// that may be slightly negative under a negative curve rate) into the
// UFixed multiplicative factor SharesTracker.ApplyInterestRate expects:
// it multiplies AtomsPerShare by the factor directly, so the factor is
// 1+delta, not delta itself.
func toGrowthFactor(delta afixed.IFixed) (afixed.UFixed, error) {
	factor, err := delta.SafeAdd(afixed.One())
	if err != nil {
		return afixed.UFixed{}, err
	}
	return factor.ToUFixed()
}

// health computes the current LTV for a borrow position's atoms against
// w's validated oracles, at the market's token decimals.
func health(
	borrowedAtoms, collateralAtoms uint64,
	supplyMintDecimals, collateralMintDecimals uint8,
	supplyOracle, collateralOracle oracle.Rate,
) (Health, error) {
	borrowValue, err := supplyOracle.BorrowValue(borrowedAtoms, supplyMintDecimals)
	if err != nil {
		return Health{}, lendingerr.Track(err)
	}
	collateralValue, err := collateralOracle.CollateralValue(collateralAtoms, collateralMintDecimals)
	if err != nil {
		return Health{}, lendingerr.Track(err)
	}
	if collateralValue.IsZero() {
		if borrowValue.IsZero() {
			return Health{LTV: afixed.Zero(), BorrowValue: borrowValue, CollateralValue: collateralValue}, nil
		}
		return Health{LTV: afixed.FromU64(1 << 32), BorrowValue: borrowValue, CollateralValue: collateralValue}, nil
	}
	ltv, err := borrowValue.SafeDiv(collateralValue)
	if err != nil {
		return Health{}, lendingerr.Track(err)
	}
	return Health{LTV: ltv, BorrowValue: borrowValue, CollateralValue: collateralValue}, nil
}
