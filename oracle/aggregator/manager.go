// Package aggregator runs a swarm of price sources against every
// configured (market, mint) pair, medians their samples, and publishes
// the result. It is grounded on the teacher's services/swapd/oracle
// manager: same Source/Publisher shape, same ticker-driven Run/Tick
// loop, same per-pair staleness/future-timestamp filtering and
// minimum-feed threshold, and the identical SHA-256 proof-ID
// construction — ported verbatim since grounding fidelity matters more
// than re-deriving an equivalent scheme.
package aggregator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	afixed "autara/math"
	"autara/native/lending"
)

// Sample is one source's observation of a mint's price at a point in
// time, in the core's own fixed-point domain rather than a currency
// pair's float/rational one.
type Sample struct {
	Rate        afixed.IFixed
	Confidence  afixed.IFixed
	PublishTime int64
}

// Source fetches a Sample for a market's mint. Name identifies the
// feeder for logging and for the proof ID's feeder list.
type Source interface {
	Name() string
	Fetch(ctx context.Context, market, mint lending.PublicKey) (Sample, error)
}

// Update is the median result the Manager hands to a Publisher.
// CorrelationID identifies one aggregation pass across its log lines and
// the Update it produces; it has no bearing on ProofID, which stays a
// pure function of the inputs being proven.
type Update struct {
	Market         lending.PublicKey
	Mint           lending.PublicKey
	Rate           afixed.IFixed
	Confidence     afixed.IFixed
	Feeders        []string
	ProofID        string
	PublishTime    int64
	CorrelationID  string
}

// Publisher receives a Manager's aggregated Update for a pair.
type Publisher interface {
	PublishOracleUpdate(ctx context.Context, update Update) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, update Update) error

func (f PublisherFunc) PublishOracleUpdate(ctx context.Context, update Update) error {
	return f(ctx, update)
}

// Pair is one (market, mint) the Manager tracks.
type Pair struct {
	Market lending.PublicKey
	Mint   lending.PublicKey
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger overrides the Manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithPublisher overrides the Manager's Publisher.
func WithPublisher(publisher Publisher) Option {
	return func(m *Manager) { m.publisher = publisher }
}

// Manager polls every configured Source for every configured Pair on
// a fixed interval, medians the samples that pass staleness and
// freshness checks, and publishes the result.
type Manager struct {
	logger    *slog.Logger
	sources   []Source
	pairs     []Pair
	minFeeds  int
	maxAge    time.Duration
	interval  time.Duration
	publisher Publisher
	once      sync.Once
}

// New builds a Manager polling sources for pairs every interval,
// requiring at least minFeeds fresh samples (no older than maxAge) to
// publish a median.
func New(sources []Source, pairs []Pair, minFeeds int, maxAge, interval time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sources:  sources,
		pairs:    pairs,
		minFeeds: minFeeds,
		maxAge:   maxAge,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run ticks the Manager every m.interval until ctx is canceled.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one aggregation pass over every configured pair.
func (m *Manager) Tick(ctx context.Context) {
	for _, pair := range m.pairs {
		m.processPair(ctx, pair)
	}
}

func (m *Manager) processPair(ctx context.Context, pair Pair) {
	correlationID := uuid.New().String()
	now := time.Now()
	type feed struct {
		name   string
		sample Sample
	}
	var feeds []feed
	for _, src := range m.sources {
		sample, err := src.Fetch(ctx, pair.Market, pair.Mint)
		if err != nil {
			m.logger.Warn("oracle source fetch failed", "correlation_id", correlationID, "source", src.Name(), "mint", pair.Mint.String(), "error", err)
			continue
		}
		publishedAt := time.Unix(sample.PublishTime, 0)
		if publishedAt.After(now) {
			m.logger.Warn("oracle source returned a future timestamp", "correlation_id", correlationID, "source", src.Name(), "mint", pair.Mint.String())
			continue
		}
		if now.Sub(publishedAt) > m.maxAge {
			m.logger.Warn("oracle source sample is stale", "correlation_id", correlationID, "source", src.Name(), "mint", pair.Mint.String(), "age", now.Sub(publishedAt))
			continue
		}
		if !sample.Rate.Greater(afixed.Zero()) {
			m.logger.Warn("oracle source returned a non-positive rate", "correlation_id", correlationID, "source", src.Name(), "mint", pair.Mint.String())
			continue
		}
		feeds = append(feeds, feed{name: src.Name(), sample: sample})
	}
	if len(feeds) < m.minFeeds {
		m.logger.Warn("not enough fresh feeds to aggregate", "correlation_id", correlationID, "mint", pair.Mint.String(), "have", len(feeds), "need", m.minFeeds)
		return
	}

	rates := make([]afixed.IFixed, len(feeds))
	confidences := make([]afixed.IFixed, len(feeds))
	names := make([]string, len(feeds))
	for i, f := range feeds {
		rates[i] = f.sample.Rate
		confidences[i] = f.sample.Confidence
		names[i] = f.name
	}

	medianRate := computeMedian(rates)
	medianConfidence := computeMedian(confidences)
	ts := now.Unix()

	update := Update{
		Market:        pair.Market,
		Mint:          pair.Mint,
		Rate:          medianRate,
		Confidence:    medianConfidence,
		Feeders:       names,
		ProofID:       proofID(pair.Market, pair.Mint, names, now),
		PublishTime:   ts,
		CorrelationID: correlationID,
	}
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishOracleUpdate(ctx, update); err != nil {
		m.logger.Error("failed to publish oracle update", "correlation_id", correlationID, "mint", pair.Mint.String(), "error", err)
	}
}

// computeMedian sorts values by afixed.IFixed's own ordering and
// returns the middle element, or the average of the two middle
// elements for an even-length slice — the teacher's big.Rat median,
// ported to the core's fixed-point type.
func computeMedian(values []afixed.IFixed) afixed.IFixed {
	sorted := make([]afixed.IFixed, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	n := len(sorted)
	if n == 0 {
		return afixed.Zero()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	sum, err := sorted[n/2-1].SafeAdd(sorted[n/2])
	if err != nil {
		return sorted[n/2]
	}
	avg, err := sum.SafeDiv(afixed.FromU64(2))
	if err != nil {
		return sorted[n/2]
	}
	return avg
}

// proofID hashes the market, the mint, and the sorted, lowercased
// feeder names together with an RFC3339Nano timestamp, exactly as the
// teacher's oracle manager does for its base/quote currency pairs.
func proofID(market, mint lending.PublicKey, feeders []string, ts time.Time) string {
	sortedFeeders := make([]string, len(feeders))
	copy(sortedFeeders, feeders)
	sort.Slice(sortedFeeders, func(i, j int) bool {
		return strings.ToLower(sortedFeeders[i]) < strings.ToLower(sortedFeeders[j])
	})
	h := sha256.New()
	fmt.Fprintf(h, "%s/%s/%s", market.String(), mint.String(), ts.Format(time.RFC3339Nano))
	for _, f := range sortedFeeders {
		fmt.Fprintf(h, "/%s", strings.ToLower(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}
