package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// RiskScoreStore implements storage.RiskScoreStore using PostgreSQL.
// The full score document is kept as JSONB; the indexed columns exist
// for the freshness predicate and for ad-hoc queries.
type RiskScoreStore struct {
	pool *Pool
}

// NewRiskScoreStore creates a new RiskScoreStore.
func NewRiskScoreStore(pool *Pool) *RiskScoreStore {
	return &RiskScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RiskScoreStore = (*RiskScoreStore)(nil)

// GetFresh retrieves the score for a token if analyzed within maxAge.
// Returns ErrNotFound if the token is unknown or the score is stale.
func (s *RiskScoreStore) GetFresh(ctx context.Context, chain domain.Chain, address string, maxAge time.Duration) (*domain.RiskScore, error) {
	query := `
		SELECT payload
		FROM risk_scores
		WHERE chain = $1 AND address = $2 AND analyzed_at > $3
	`

	cutoff := time.Now().Add(-maxAge)
	normalized := domain.NormalizeAddress(chain, address)

	var payload []byte
	err := s.pool.QueryRow(ctx, query, string(chain), normalized, cutoff).Scan(&payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get risk score: %w", err)
	}

	var score domain.RiskScore
	if err := json.Unmarshal(payload, &score); err != nil {
		return nil, fmt.Errorf("decode risk score payload: %w", err)
	}
	return &score, nil
}

// Upsert stores a score, replacing any previous score for the token.
func (s *RiskScoreStore) Upsert(ctx context.Context, score *domain.RiskScore) error {
	if score == nil || score.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode risk score payload: %w", err)
	}

	query := `
		INSERT INTO risk_scores (chain, address, total_score, level, payload, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chain, address) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			level = EXCLUDED.level,
			payload = EXCLUDED.payload,
			analyzed_at = EXCLUDED.analyzed_at,
			updated_at = now()
	`

	_, err = s.pool.Exec(ctx, query,
		string(score.Chain),
		domain.NormalizeAddress(score.Chain, score.TokenAddress),
		score.TotalScore,
		string(score.Level),
		payload,
		score.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert risk score: %w", err)
	}
	return nil
}
