package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"autara/lendingerr"
	afixed "autara/math"
	"autara/native/common"
	"autara/native/lending"
	"autara/observability"
	"autara/oracle"
)

// ufixedStr and ifixedStr render a fixed-point value as a decimal
// string for the wire views; callers that need exact precision should
// reconstruct the value from the market's live state rather than parse
// these back, since the underlying type exposes no exact decimal
// marshaling of its own.
func ufixedStr(v afixed.UFixed) string { return strconv.FormatFloat(v.ToFloat(), 'f', -1, 64) }
func ifixedStr(v afixed.IFixed) string { return strconv.FormatFloat(v.ToFloat(), 'f', -1, 64) }

// PriceSource resolves the most recently validated-or-validatable
// oracle sample for a market's mint. aggregator.LatestStore implements
// this directly; a CoreEngine built in tests can substitute a fake.
type PriceSource interface {
	Unchecked(marketID, mint lending.PublicKey) (oracle.Unchecked, bool)
}

// memQuotaStore is an in-memory common.Store, sufficient for a single
// daemon process; a durable deployment would back this with the same
// persistence layer as its markets.
type memQuotaStore struct {
	mu   sync.Mutex
	data map[string]common.QuotaNow
}

func newMemQuotaStore() *memQuotaStore {
	return &memQuotaStore{data: make(map[string]common.QuotaNow)}
}

func (s *memQuotaStore) key(module string, epoch uint64, addr []byte) string {
	return fmt.Sprintf("%s/%d/%x", module, epoch, addr)
}

func (s *memQuotaStore) Load(module string, epoch uint64, addr []byte) (common.QuotaNow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[s.key(module, epoch, addr)]
	return v, ok, nil
}

func (s *memQuotaStore) Save(module string, epoch uint64, addr []byte, counters common.QuotaNow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(module, epoch, addr)] = counters
	return nil
}

// marketEntry is one market's live state: its core Market, its
// service-layer pause switches (the core itself has no pause
// concept), and every open position against it. Every mutation takes
// mu first, following the teacher's pause-gate/guard discipline of
// checking module state before constructing a MarketWrapper.
type marketEntry struct {
	mu sync.Mutex

	id     lending.PublicKey
	market *lending.Market
	pauses lending.ActionPauses

	supply map[lending.PublicKey]*lending.SupplyPosition
	borrow map[lending.PublicKey]*lending.BorrowPosition
}

func (e *marketEntry) IsPaused(module string) bool {
	switch module {
	case "supply":
		return e.pauses.Supply
	case "borrow":
		return e.pauses.Borrow
	case "repay":
		return e.pauses.Repay
	case "liquidate":
		return e.pauses.Liquidate
	default:
		return false
	}
}

func (e *marketEntry) supplyPosition(authority lending.PublicKey) *lending.SupplyPosition {
	pos, ok := e.supply[authority]
	if !ok {
		pos = &lending.SupplyPosition{Authority: authority, Market: e.id}
		e.supply[authority] = pos
	}
	return pos
}

func (e *marketEntry) borrowPosition(authority lending.PublicKey) *lending.BorrowPosition {
	pos, ok := e.borrow[authority]
	if !ok {
		pos = &lending.BorrowPosition{Authority: authority, Market: e.id}
		e.borrow[authority] = pos
	}
	return pos
}

// CoreEngine implements Engine directly over native/lending, with no
// remote node in the loop: every call wraps the target market's
// *lending.Market in a lending.MarketWrapper and invokes the matching
// wrapper method, under that market's mutex.
type CoreEngine struct {
	logger *slog.Logger
	prices PriceSource
	clock  func() int64

	marketsMu sync.RWMutex
	markets   map[lending.PublicKey]*marketEntry

	globalMu sync.Mutex
	global   lending.GlobalConfig

	limitersMu   sync.Mutex
	limiters     map[lending.PublicKey]*rate.Limiter
	limiterAt    rate.Limit
	limiterBurst int

	quotaStore common.Store
	quota      common.Quota

	engineMetrics  *observability.EngineMetrics
	lendingMetrics *observability.LendingMetrics
}

// NewCoreEngine builds a CoreEngine with no markets registered. prices
// supplies oracle samples for every mutating operation; logger must be
// non-nil.
func NewCoreEngine(prices PriceSource, logger *slog.Logger, global lending.GlobalConfig) *CoreEngine {
	return &CoreEngine{
		logger:         logger,
		prices:         prices,
		clock:          func() int64 { return time.Now().Unix() },
		markets:        make(map[lending.PublicKey]*marketEntry),
		global:         global,
		limiters:       make(map[lending.PublicKey]*rate.Limiter),
		limiterAt:      rate.Limit(5),
		limiterBurst:   10,
		quotaStore:     newMemQuotaStore(),
		quota:          common.Quota{MaxRequestsPerMin: 120, MaxAtomsPerEpoch: 0, EpochSeconds: 60},
		engineMetrics:  observability.Engine(),
		lendingMetrics: observability.Lending(),
	}
}

// RegisterMarket adds market under marketID, ready to serve operations.
func (c *CoreEngine) RegisterMarket(marketID lending.PublicKey, market *lending.Market) {
	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()
	c.markets[marketID] = &marketEntry{
		id:     marketID,
		market: market,
		supply: make(map[lending.PublicKey]*lending.SupplyPosition),
		borrow: make(map[lending.PublicKey]*lending.BorrowPosition),
	}
}

// SetMarketPauses updates a market's service-layer pause switches.
func (c *CoreEngine) SetMarketPauses(marketID lending.PublicKey, pauses lending.ActionPauses) error {
	entry, err := c.entry(marketID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.pauses = pauses
	return nil
}

func (c *CoreEngine) entry(marketID lending.PublicKey) (*marketEntry, error) {
	c.marketsMu.RLock()
	defer c.marketsMu.RUnlock()
	entry, ok := c.markets[marketID]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (c *CoreEngine) oracles(entry *marketEntry) (oracle.Unchecked, oracle.Unchecked, error) {
	supply, ok := c.prices.Unchecked(entry.id, entry.market.Supply.Mint)
	if !ok {
		return oracle.Unchecked{}, oracle.Unchecked{}, fmt.Errorf("%w: no supply price for market %s", ErrInternal, entry.id)
	}
	collateral, ok := c.prices.Unchecked(entry.id, entry.market.Collateral.Mint)
	if !ok {
		return oracle.Unchecked{}, oracle.Unchecked{}, fmt.Errorf("%w: no collateral price for market %s", ErrInternal, entry.id)
	}
	return supply, collateral, nil
}

func (c *CoreEngine) wrap(entry *marketEntry) (*lending.MarketWrapper, error) {
	supply, collateral, err := c.oracles(entry)
	if err != nil {
		return nil, err
	}
	w, err := lending.NewMarketWrapper(entry.id, entry.market, supply, collateral, c.clock())
	if err != nil {
		return nil, translateCoreErr(err)
	}
	c.recordMarketState(entry)
	return w, nil
}

// recordMarketState pushes entry's freshly-synced accounting onto the
// lending-domain gauges: NewMarketWrapper above has just run SyncClock,
// so utilisation, the last borrow rate, and pending fee shares all
// reflect the current clock.
func (c *CoreEngine) recordMarketState(entry *marketEntry) {
	if c.lendingMetrics == nil {
		return
	}
	util, err := entry.market.Utilisation()
	if err != nil {
		return
	}
	c.lendingMetrics.RecordMarketState(
		entry.id.String(),
		util.ToFloat(),
		entry.market.Supply.LastBorrowInterestRate.ToFloat(),
		entry.market.Supply.PendingProtocolFeeShares.ToFloat(),
		entry.market.Supply.PendingCuratorFeeShares.ToFloat(),
	)
}

// observeOp records a single engine call's outcome and latency, and, on
// success, increments the per-market event counter for kind.
func (c *CoreEngine) observeOp(method string, marketID lending.PublicKey, kind string, err error, start time.Time) {
	if c.engineMetrics == nil {
		return
	}
	errKind := ""
	if err != nil {
		if k, ok := lendingerr.KindOf(err); ok {
			errKind = k.String()
		} else {
			errKind = "internal"
		}
	} else if kind != "" {
		observability.Events().RecordEvent(marketID.String(), kind)
	}
	c.engineMetrics.Observe(method, errKind, time.Since(start))
}

// checkRateLimit enforces a per-authority token-bucket cap (via
// golang.org/x/time/rate) alongside the per-minute/per-epoch counters
// native/common.Quota tracks, on the two operations capable of the
// most economic damage per call: Borrow and Liquidate.
func (c *CoreEngine) checkRateLimit(module string, authority lending.PublicKey, atoms uint64) error {
	c.limitersMu.Lock()
	limiter, ok := c.limiters[authority]
	if !ok {
		limiter = rate.NewLimiter(c.limiterAt, c.limiterBurst)
		c.limiters[authority] = limiter
	}
	c.limitersMu.Unlock()
	if !limiter.Allow() {
		return fmt.Errorf("%w: %s rate limit exceeded", ErrInternal, module)
	}
	epoch := uint64(c.clock()) / uint64(c.quota.EpochSeconds)
	addr := authority[:]
	if _, err := common.Apply(c.quotaStore, module, epoch, addr, c.quota, 1, atoms); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

func (c *CoreEngine) GetMarket(_ context.Context, marketID lending.PublicKey) (Market, error) {
	entry, err := c.entry(marketID)
	if err != nil {
		return Market{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return toMarketView(entry.id, entry.market), nil
}

func (c *CoreEngine) ListMarkets(_ context.Context) ([]Market, error) {
	c.marketsMu.RLock()
	entries := make([]*marketEntry, 0, len(c.markets))
	for _, entry := range c.markets {
		entries = append(entries, entry)
	}
	c.marketsMu.RUnlock()

	out := make([]Market, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		out = append(out, toMarketView(entry.id, entry.market))
		entry.mu.Unlock()
	}
	return out, nil
}

func (c *CoreEngine) GetPosition(_ context.Context, marketID, authority lending.PublicKey) (Position, error) {
	entry, err := c.entry(marketID)
	if err != nil {
		return Position{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	pos := Position{MarketID: marketID, Authority: authority}
	if sp, ok := entry.supply[authority]; ok {
		pos.Supply = &SupplyPosition{DepositedAtoms: sp.DepositedAtoms, Shares: ufixedStr(sp.Shares)}
	}
	if bp, ok := entry.borrow[authority]; ok {
		pos.Borrow = &BorrowPosition{
			CollateralDepositedAtoms: bp.CollateralDepositedAtoms,
			InitialBorrowedAtoms:     bp.InitialBorrowedAtoms,
			BorrowedShares:           ufixedStr(bp.BorrowedShares),
		}
	}
	return pos, nil
}

func (c *CoreEngine) GetHealth(_ context.Context, marketID, authority lending.PublicKey) (Health, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Health{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	bp, ok := entry.borrow[authority]
	if !ok {
		return Health{LTV: "0", BorrowValue: "0", CollateralValue: "0"}, nil
	}
	w, err := c.wrap(entry)
	if err != nil {
		return Health{}, err
	}
	h, _, err := w.PositionHealth(bp)
	c.observeOp("GetHealth", marketID, "", err, start)
	if err != nil {
		return Health{}, translateCoreErr(err)
	}
	return toHealthView(h), nil
}

func (c *CoreEngine) Supply(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := common.Guard(entry, "supply"); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrPaused, err)
	}
	w, err := c.wrap(entry)
	if err != nil {
		return Event{}, err
	}
	pos := entry.supplyPosition(authority)
	ev, err := w.Lend(pos, authority, atoms)
	defer func() { c.observeOp("Supply", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return Event{}, translateCoreErr(err)
	}
	return toEventView(ev), nil
}

func (c *CoreEngine) Withdraw(_ context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	w, err := c.wrap(entry)
	if err != nil {
		return Event{}, err
	}
	pos := entry.supplyPosition(authority)
	var ev lending.Event
	if all {
		ev, err = w.WithdrawAll(pos, authority)
	} else {
		ev, err = w.Withdraw(pos, authority, atoms)
	}
	defer func() { c.observeOp("Withdraw", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return Event{}, translateCoreErr(err)
	}
	return toEventView(ev), nil
}

func (c *CoreEngine) DepositCollateral(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	w, err := c.wrap(entry)
	if err != nil {
		return Event{}, err
	}
	pos := entry.borrowPosition(authority)
	ev, err := w.DepositCollateral(pos, authority, atoms)
	defer func() { c.observeOp("DepositCollateral", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return Event{}, translateCoreErr(err)
	}
	return toEventView(ev), nil
}

func (c *CoreEngine) WithdrawCollateral(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	w, err := c.wrap(entry)
	if err != nil {
		return Event{}, err
	}
	pos := entry.borrowPosition(authority)
	ev, err := w.WithdrawCollateral(pos, authority, atoms)
	defer func() { c.observeOp("WithdrawCollateral", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return Event{}, translateCoreErr(err)
	}
	return toEventView(ev), nil
}

func (c *CoreEngine) Borrow(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := common.Guard(entry, "borrow"); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrPaused, err)
	}
	if err := c.checkRateLimit("borrow", authority, atoms); err != nil {
		return Event{}, err
	}
	w, err := c.wrap(entry)
	if err != nil {
		return Event{}, err
	}
	pos := entry.borrowPosition(authority)
	ev, err := w.Borrow(pos, authority, atoms)
	defer func() { c.observeOp("Borrow", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return Event{}, translateCoreErr(err)
	}
	return toEventView(ev), nil
}

func (c *CoreEngine) Repay(_ context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := common.Guard(entry, "repay"); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrPaused, err)
	}
	w, err := c.wrap(entry)
	if err != nil {
		return Event{}, err
	}
	pos := entry.borrowPosition(authority)
	var ev lending.Event
	if all {
		ev, err = w.RepayAll(pos, authority)
	} else {
		ev, err = w.Repay(pos, authority, atoms)
	}
	defer func() { c.observeOp("Repay", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return Event{}, translateCoreErr(err)
	}
	return toEventView(ev), nil
}

func (c *CoreEngine) Liquidate(_ context.Context, marketID, liquidator, borrower lending.PublicKey, maxRepayAtoms uint64) (LiquidationResult, Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return LiquidationResult{}, Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := common.Guard(entry, "liquidate"); err != nil {
		return LiquidationResult{}, Event{}, fmt.Errorf("%w: %v", ErrPaused, err)
	}
	if err := c.checkRateLimit("liquidate", liquidator, maxRepayAtoms); err != nil {
		return LiquidationResult{}, Event{}, err
	}
	w, err := c.wrap(entry)
	if err != nil {
		return LiquidationResult{}, Event{}, err
	}
	pos, ok := entry.borrow[borrower]
	if !ok {
		return LiquidationResult{}, Event{}, ErrNotFound
	}
	result, ev, err := w.Liquidate(pos, liquidator, maxRepayAtoms)
	defer func() { c.observeOp("Liquidate", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return LiquidationResult{}, Event{}, translateCoreErr(err)
	}
	if c.lendingMetrics != nil {
		c.lendingMetrics.RecordLiquidation(marketID.String(), !result.HealthBefore.LTV.Less(afixed.One()))
	}
	return toLiquidationResultView(result), toEventView(ev), nil
}

func (c *CoreEngine) SocializeLoss(_ context.Context, marketID, borrower lending.PublicKey) (SocializeResult, Event, error) {
	start := time.Now()
	entry, err := c.entry(marketID)
	if err != nil {
		return SocializeResult{}, Event{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	w, err := c.wrap(entry)
	if err != nil {
		return SocializeResult{}, Event{}, err
	}
	pos, ok := entry.borrow[borrower]
	if !ok {
		return SocializeResult{}, Event{}, ErrNotFound
	}
	result, ev, err := w.SocializeLoss(pos, borrower)
	defer func() { c.observeOp("SocializeLoss", marketID, ev.Kind.String(), err, start) }()
	if err != nil {
		return SocializeResult{}, Event{}, translateCoreErr(err)
	}
	return SocializeResult{DebtAtoms: result.DebtAtoms, CollateralAtoms: result.CollateralAtoms}, toEventView(ev), nil
}

func (c *CoreEngine) UpdateMarketConfig(_ context.Context, marketID, caller lending.PublicKey, patch lending.MarketConfigPatch, expectedChecksum string) (Market, error) {
	entry, err := c.entry(marketID)
	if err != nil {
		return Market{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if expectedChecksum != "" {
		checksum := entry.market.Checksum()
		if expectedChecksum != hex.EncodeToString(checksum[:]) {
			return Market{}, ErrStaleMarket
		}
	}
	if err := entry.market.UpdateConfig(caller, patch); err != nil {
		return Market{}, translateCoreErr(err)
	}
	return toMarketView(entry.id, entry.market), nil
}

func (c *CoreEngine) UpdateGlobalConfig(_ context.Context, caller lending.PublicKey, patch lending.GlobalConfigPatch) (GlobalConfig, error) {
	c.globalMu.Lock()
	defer c.globalMu.Unlock()
	if err := c.global.UpdateGlobalConfig(caller, patch); err != nil {
		return GlobalConfig{}, translateCoreErr(err)
	}
	return toGlobalConfigView(c.global), nil
}

func translateCoreErr(err error) error {
	if err == nil {
		return nil
	}
	kind, ok := lendingerr.KindOf(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	switch kind {
	case lendingerr.MaxLtvReached, lendingerr.MaxUtilisationRateReached, lendingerr.MaxSupplyReached:
		return fmt.Errorf("%w: %v", ErrInsufficientCollateral, err)
	case lendingerr.InvalidMarketAuthority, lendingerr.InvalidProtocolAuthority, lendingerr.InvalidNomination:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
}

func toMarketView(id lending.PublicKey, m *lending.Market) Market {
	checksum := m.Checksum()
	return Market{
		ID:                      id,
		Curator:                 m.Config.Curator,
		SupplyMint:              m.Supply.Mint,
		CollateralMint:          m.Collateral.Mint,
		SupplyDecimals:          m.Supply.MintDecimals,
		CollateralDecimals:      m.Collateral.MintDecimals,
		MaxLTV:                  ifixedStr(m.Config.Ltv.MaxLTV),
		UnhealthyLTV:            ifixedStr(m.Config.Ltv.UnhealthyLTV),
		LiquidationBonus:        ifixedStr(m.Config.Ltv.LiquidationBonus),
		MaxUtilisationRate:      ifixedStr(m.Config.MaxUtilisationRate),
		MaxSupplyAtoms:          m.Config.MaxSupplyAtoms,
		LendingMarketFeeBps:     m.Config.LendingMarketFeeBps,
		ProtocolFeeShareBps:     m.Config.ProtocolFeeShareBps,
		TotalSupplyShares:       ufixedStr(m.Supply.Supply.TotalShares),
		SupplyAtomsPerShare:     ufixedStr(m.Supply.Supply.AtomsPerShare),
		TotalBorrowShares:       ufixedStr(m.Supply.Borrow.TotalShares),
		BorrowAtomsPerShare:     ufixedStr(m.Supply.Borrow.AtomsPerShare),
		TotalCollateralAtoms:    m.Collateral.TotalCollateralAtoms,
		LastBorrowRatePerSecond: fmt.Sprintf("%v", m.Supply.LastBorrowInterestRate),
		LastUpdateUnixTimestamp: m.Supply.LastUpdateUnixTimestamp,
		Checksum:                hex.EncodeToString(checksum[:]),
	}
}

func toHealthView(h lending.Health) Health {
	return Health{
		LTV:             ifixedStr(h.LTV),
		BorrowValue:     ifixedStr(h.BorrowValue),
		CollateralValue: ifixedStr(h.CollateralValue),
	}
}

func toEventView(ev lending.Event) Event {
	return Event{
		Kind:                  ev.Kind.String(),
		MarketID:              ev.Market,
		Authority:             ev.Authority,
		Atoms:                 ev.Atoms,
		Shares:                ufixedStr(ev.Shares),
		SupplyOraclePrice:     ev.SupplyOracle.String(),
		CollateralOraclePrice: ev.CollateralOracle.String(),
		UnixTimestamp:         ev.UnixTimestamp,
	}
}

func toLiquidationResultView(r lending.LiquidationResult) LiquidationResult {
	return LiquidationResult{
		RepayAtoms:   r.RepayAtoms,
		SeizeAtoms:   r.SeizeAtoms,
		BonusAtoms:   r.BonusAtoms,
		HealthBefore: toHealthView(r.HealthBefore),
		HealthAfter:  toHealthView(r.HealthAfter),
	}
}

func toGlobalConfigView(g lending.GlobalConfig) GlobalConfig {
	return GlobalConfig{
		Admin:               g.Admin,
		NominatedAdmin:      g.NominatedAdmin,
		FeeReceiver:         g.FeeReceiver,
		ProtocolFeeShareBps: g.ProtocolFeeShareBps,
	}
}
