package aggregator

import (
	"context"
	"fmt"
	"sync"

	"autara/native/lending"
	"autara/oracle"
)

// LatestStore is a Publisher that keeps only the most recent Update
// per (market, mint) pair in memory, decoupling the Manager's async
// polling loop from the engine's synchronous call path: every mutating
// engine operation reads the current snapshot without blocking on a
// network round trip.
type LatestStore struct {
	mu     sync.RWMutex
	latest map[string]Update
}

// NewLatestStore returns an empty LatestStore.
func NewLatestStore() *LatestStore {
	return &LatestStore{latest: make(map[string]Update)}
}

func pairKey(market, mint lending.PublicKey) string {
	return fmt.Sprintf("%s/%s", market.String(), mint.String())
}

// PublishOracleUpdate implements Publisher by overwriting the stored
// snapshot for update's pair.
func (s *LatestStore) PublishOracleUpdate(_ context.Context, update Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[pairKey(update.Market, update.Mint)] = update
	return nil
}

// Latest returns the most recently published Update for (market, mint).
func (s *LatestStore) Latest(market, mint lending.PublicKey) (Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.latest[pairKey(market, mint)]
	return u, ok
}

// Unchecked converts the stored snapshot for (market, mint) into an
// oracle.Unchecked ready for oracle.Validate / lending.NewMarketWrapper.
func (s *LatestStore) Unchecked(market, mint lending.PublicKey) (oracle.Unchecked, bool) {
	u, ok := s.Latest(market, mint)
	if !ok {
		return oracle.Unchecked{}, false
	}
	rate := oracle.NewRate(u.Rate, u.Confidence)
	return oracle.NewUnchecked(rate, u.PublishTime), true
}
