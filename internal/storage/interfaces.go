package storage

import (
	"context"
	"time"

	"token-risk-engine/internal/domain"
)

// FreshFor is how long a persisted risk score is served without re-analysis.
const FreshFor = time.Hour

// RiskScoreStore provides access to the latest risk score per token.
type RiskScoreStore interface {
	// GetFresh retrieves the score for a token if it was analyzed within
	// maxAge. Returns ErrNotFound if the token is unknown or the score
	// is stale.
	GetFresh(ctx context.Context, chain domain.Chain, address string, maxAge time.Duration) (*domain.RiskScore, error)

	// Upsert stores a score, replacing any previous score for the token.
	Upsert(ctx context.Context, score *domain.RiskScore) error
}

// ScoreHistoryStore records every completed analysis for offline reporting.
type ScoreHistoryStore interface {
	// Append adds analysis results to the history log.
	Append(ctx context.Context, scores []*domain.RiskScore) error
}
