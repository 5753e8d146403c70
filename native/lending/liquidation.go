package lending

import (
	"github.com/holiman/uint256"

	"autara/lendingerr"
	afixed "autara/math"
)

// LiquidationResult is the realized outcome of a Liquidate call: the
// atoms repaid into the supply vault, the atoms (principal + bonus)
// seized from the position's collateral, and the position's health
// immediately before and after.
type LiquidationResult struct {
	RepayAtoms uint64
	SeizeAtoms uint64
	BonusAtoms uint64

	HealthBefore Health
	HealthAfter  Health
}

// liquidationPlan is the unclipped, pre-realization plan: how much to
// repay, how much principal to seize, and how much bonus on top.
type liquidationPlan struct {
	repayAtoms uint64
	seizeAtoms uint64
	bonusAtoms uint64
}

// Liquidate repays up to maxRepayAtoms of position's debt on behalf of
// the caller and seizes the proportional collateral plus a bonus,
// restoring the position toward its market's target liquidation LTV.
// Positions at or above 100% LTV take the bad-debt path: the plan pays
// zero bonus and seizes collateral strictly proportional to the debt
// repaid, since the ordinary closed form would demand more collateral
// than remains.
func (w *MarketWrapper) Liquidate(position *BorrowPosition, authority PublicKey, maxRepayAtoms uint64) (LiquidationResult, Event, error) {
	healthBefore, borrowedAtoms, err := w.positionHealth(position)
	if err != nil {
		return LiquidationResult{}, Event{}, lendingerr.Track(err)
	}
	if healthBefore.LTV.Less(w.market.Config.Ltv.UnhealthyLTV) {
		return LiquidationResult{}, Event{}, lendingerr.WithContext(lendingerr.PositionIsHealthy)
	}

	market := w.market.Clone()
	pos := *position

	var plan liquidationPlan
	if healthBefore.LTV.GreaterOrEqual(afixed.One()) {
		plan, err = w.badDebtPlan(borrowedAtoms, pos.CollateralDepositedAtoms, maxRepayAtoms)
	} else {
		plan, err = w.targetLtvPlan(&market, borrowedAtoms, pos.CollateralDepositedAtoms, maxRepayAtoms)
	}
	if err != nil {
		return LiquidationResult{}, Event{}, lendingerr.Track(err)
	}
	if plan.repayAtoms == 0 {
		return LiquidationResult{}, Event{}, lendingerr.WithContext(lendingerr.LiquidationDidNotMeetRequirements)
	}

	realizedRepayAtoms, realizedShares, err := market.Supply.Borrow.WithdrawAtomsCapped(
		afixed.UFromU64(plan.repayAtoms), pos.BorrowedShares, afixed.RoundDown,
	)
	if err != nil {
		return LiquidationResult{}, Event{}, lendingerr.Track(err)
	}
	realizedRepay, err := realizedRepayAtoms.ToU64(afixed.RoundDown)
	if err != nil {
		return LiquidationResult{}, Event{}, lendingerr.Track(err)
	}
	if realizedRepay < plan.repayAtoms {
		plan, err = scalePlan(plan, realizedRepay)
		if err != nil {
			return LiquidationResult{}, Event{}, lendingerr.Track(err)
		}
	}

	remainingShares, err := pos.BorrowedShares.SafeSub(realizedShares)
	if err != nil {
		return LiquidationResult{}, Event{}, lendingerr.Track(err)
	}
	pos.BorrowedShares = remainingShares
	if remainingShares.IsZero() {
		pos.InitialBorrowedAtoms = 0
	} else if plan.repayAtoms < pos.InitialBorrowedAtoms {
		pos.InitialBorrowedAtoms -= plan.repayAtoms
	} else {
		pos.InitialBorrowedAtoms = 0
	}

	seizedTotal := plan.seizeAtoms + plan.bonusAtoms
	if seizedTotal > pos.CollateralDepositedAtoms {
		seizedTotal = pos.CollateralDepositedAtoms
	}
	pos.CollateralDepositedAtoms -= seizedTotal
	market.Collateral.TotalCollateralAtoms -= seizedTotal

	healthAfter, _, err := w.positionHealthOf(&market, &pos)
	if err != nil {
		return LiquidationResult{}, Event{}, lendingerr.Track(err)
	}
	if !healthAfter.LTV.Less(healthBefore.LTV) {
		return LiquidationResult{}, Event{}, lendingerr.WithContext(lendingerr.InvalidLiquidationLtvShouldDecrease)
	}

	*w.market = market
	*position = pos

	result := LiquidationResult{
		RepayAtoms:   plan.repayAtoms,
		SeizeAtoms:   plan.seizeAtoms,
		BonusAtoms:   plan.bonusAtoms,
		HealthBefore: healthBefore,
		HealthAfter:  healthAfter,
	}
	ev := w.newEvent(EventLiquidate, authority, plan.repayAtoms, realizedShares)
	return result, ev, nil
}

// badDebtPlan repays min(borrowedAtoms, maxRepayAtoms) and seizes
// collateral strictly proportional to the fraction of debt repaid, with
// no bonus: the position is already under water, so any bonus would
// have to come out of collateral the supply side is relying on.
func (w *MarketWrapper) badDebtPlan(borrowedAtoms, collateralAtoms, maxRepayAtoms uint64) (liquidationPlan, error) {
	repay := borrowedAtoms
	if maxRepayAtoms < repay {
		repay = maxRepayAtoms
	}
	if repay == 0 || borrowedAtoms == 0 {
		return liquidationPlan{}, nil
	}
	seize := mulDivU64(collateralAtoms, repay, borrowedAtoms)
	return liquidationPlan{repayAtoms: repay, seizeAtoms: seize, bonusAtoms: 0}, nil
}

// targetLtvPlan solves the closed-form repay/seize/bonus plan that
// brings the position to its market's target liquidation LTV, then
// clips it to maxRepayAtoms and to the position's remaining collateral.
func (w *MarketWrapper) targetLtvPlan(market *Market, borrowedAtoms, collateralAtoms, maxRepayAtoms uint64) (liquidationPlan, error) {
	targetLtv, err := market.Config.Ltv.TargetLiquidationLTV()
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	alpha, err := afixed.One().SafeAdd(market.Config.Ltv.LiquidationBonus)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	capL, err := targetLtv.SafeMul(alpha)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}

	b, err := w.supplyOracle.BorrowValue(borrowedAtoms, market.Supply.MintDecimals)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	c, err := w.collateralOracle.CollateralValue(collateralAtoms, market.Collateral.MintDecimals)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	cL, err := c.SafeMul(capL)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	numerator, err := b.SafeSub(cL)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	denominator, err := afixed.One().SafeSub(capL)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	if denominator.LessOrEqual(afixed.Zero()) || numerator.LessOrEqual(afixed.Zero()) {
		return liquidationPlan{}, nil
	}
	repayValue, err := numerator.SafeDiv(denominator)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}

	repayAtomsFixed, err := w.supplyOracle.BorrowAtoms(repayValue, market.Supply.MintDecimals)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	repayAtomsU, err := repayAtomsFixed.ToUFixed()
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	repayAtoms, err := repayAtomsU.ToU64(afixed.RoundUp)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}

	seizeAtomsFixed, err := w.collateralOracle.CollateralAtoms(repayValue, market.Collateral.MintDecimals)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	seizeAtomsU, err := seizeAtomsFixed.ToUFixed()
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	seizeAtoms, err := seizeAtomsU.ToU64(afixed.RoundDown)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	if seizeAtoms > collateralAtoms {
		seizeAtoms = collateralAtoms
	}

	liquidationBonusU, err := market.Config.Ltv.LiquidationBonus.ToUFixed()
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	bonusAtomsU, err := afixed.UFromU64(seizeAtoms).SafeMulRound(liquidationBonusU, afixed.RoundDown)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	bonusAtoms, err := bonusAtomsU.ToU64(afixed.RoundDown)
	if err != nil {
		return liquidationPlan{}, lendingerr.Track(err)
	}
	if seizeAtoms+bonusAtoms > collateralAtoms {
		if collateralAtoms < seizeAtoms {
			bonusAtoms = 0
		} else {
			bonusAtoms = collateralAtoms - seizeAtoms
		}
	}

	plan := liquidationPlan{repayAtoms: repayAtoms, seizeAtoms: seizeAtoms, bonusAtoms: bonusAtoms}
	if repayAtoms > maxRepayAtoms {
		scaled, err := scalePlan(plan, maxRepayAtoms)
		if err != nil {
			return liquidationPlan{}, lendingerr.Track(err)
		}
		return scaled, nil
	}
	return plan, nil
}

// scalePlan scales seize and bonus linearly by realizedRepay/p.repayAtoms
// using mulDivU64's 256-bit intermediates, so the reduced repay from either the
// maxRepayAtoms cap or a WithdrawAtomsCapped shortfall still seizes a
// proportionally reduced amount of collateral.
func scalePlan(p liquidationPlan, realizedRepay uint64) (liquidationPlan, error) {
	if realizedRepay >= p.repayAtoms {
		return p, nil
	}
	return liquidationPlan{
		repayAtoms: realizedRepay,
		seizeAtoms: mulDivU64(p.seizeAtoms, realizedRepay, p.repayAtoms),
		bonusAtoms: mulDivU64(p.bonusAtoms, realizedRepay, p.repayAtoms),
	}, nil
}

// mulDivU64 computes floor(a*b/d) using 256-bit intermediates so the
// product never overflows a uint64 at 8-decimal token scales.
func mulDivU64(a, b, d uint64) uint64 {
	if d == 0 {
		return 0
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	prod.Div(prod, uint256.NewInt(d))
	return prod.Uint64()
}
