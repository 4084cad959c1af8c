package memory

import (
	"context"
	"sync"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// ScoreHistoryStore is an in-memory implementation of storage.ScoreHistoryStore.
// Used for local development where no ClickHouse instance is available.
type ScoreHistoryStore struct {
	mu      sync.RWMutex
	history []*domain.RiskScore
}

// NewScoreHistoryStore creates a new in-memory score history store.
func NewScoreHistoryStore() *ScoreHistoryStore {
	return &ScoreHistoryStore{}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// Append adds analysis results to the history log.
func (s *ScoreHistoryStore) Append(_ context.Context, scores []*domain.RiskScore) error {
	if len(scores) == 0 {
		return nil
	}
	for _, score := range scores {
		if score == nil || score.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, score := range scores {
		scoreCopy := *score
		s.history = append(s.history, &scoreCopy)
	}
	return nil
}

// All returns a copy of every recorded score in append order.
func (s *ScoreHistoryStore) All() []*domain.RiskScore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RiskScore, len(s.history))
	copy(out, s.history)
	return out
}
