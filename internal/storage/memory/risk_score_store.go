package memory

import (
	"context"
	"sync"
	"time"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// RiskScoreStore is an in-memory implementation of storage.RiskScoreStore.
type RiskScoreStore struct {
	mu     sync.RWMutex
	scores map[string]*domain.RiskScore // keyed by chain-address
}

// NewRiskScoreStore creates a new in-memory risk score store.
func NewRiskScoreStore() *RiskScoreStore {
	return &RiskScoreStore{
		scores: make(map[string]*domain.RiskScore),
	}
}

// Compile-time interface check.
var _ storage.RiskScoreStore = (*RiskScoreStore)(nil)

// GetFresh retrieves the score for a token if analyzed within maxAge.
// Returns ErrNotFound if the token is unknown or the score is stale.
func (s *RiskScoreStore) GetFresh(_ context.Context, chain domain.Chain, address string, maxAge time.Duration) (*domain.RiskScore, error) {
	key := string(chain) + "-" + domain.NormalizeAddress(chain, address)

	s.mu.RLock()
	defer s.mu.RUnlock()

	score, exists := s.scores[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if time.Since(score.AnalyzedAt) > maxAge {
		return nil, storage.ErrNotFound
	}

	scoreCopy := *score
	return &scoreCopy, nil
}

// Upsert stores a score, replacing any previous score for the token.
func (s *RiskScoreStore) Upsert(_ context.Context, score *domain.RiskScore) error {
	if score == nil || score.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scoreCopy := *score
	s.scores[score.Key()] = &scoreCopy
	return nil
}
