package clickhouse

import (
	"context"
	"fmt"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

// ScoreHistoryStore implements storage.ScoreHistoryStore using ClickHouse.
// History is append-only; MergeTree keeps every analysis row.
type ScoreHistoryStore struct {
	conn *Conn
}

// NewScoreHistoryStore creates a new ScoreHistoryStore.
func NewScoreHistoryStore(conn *Conn) *ScoreHistoryStore {
	return &ScoreHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// Append adds analysis results to the history log.
func (s *ScoreHistoryStore) Append(ctx context.Context, scores []*domain.RiskScore) error {
	if len(scores) == 0 {
		return nil
	}
	for _, score := range scores {
		if score == nil || score.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_history (
			chain, address, total_score, level,
			honeypot_score, contract_score, holder_score, liquidity_score,
			liquidity_usd, warning_codes, analyzed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, score := range scores {
		err = batch.Append(
			string(score.Chain),
			domain.NormalizeAddress(score.Chain, score.TokenAddress),
			uint8(score.TotalScore),
			string(score.Level),
			uint8(score.Honeypot.Score),
			uint8(score.Contract.Score),
			uint8(score.Holders.Score),
			uint8(score.Liquidity.Score),
			score.Liquidity.LiquidityUSD,
			warningCodes(score.Warnings),
			score.AnalyzedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// HistoryRow is one recorded analysis, as read back from ClickHouse.
type HistoryRow struct {
	Chain        string
	Address      string
	TotalScore   uint8
	Level        string
	WarningCodes []string
	AnalyzedAtMs int64
}

// GetByToken retrieves all history rows for a token, oldest first.
func (s *ScoreHistoryStore) GetByToken(ctx context.Context, chain domain.Chain, address string) ([]*HistoryRow, error) {
	query := `
		SELECT chain, address, total_score, level, warning_codes, toUnixTimestamp64Milli(analyzed_at)
		FROM score_history
		WHERE chain = ? AND address = ?
		ORDER BY analyzed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, string(chain), domain.NormalizeAddress(chain, address))
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryRow
	for rows.Next() {
		var r HistoryRow
		if err := rows.Scan(&r.Chain, &r.Address, &r.TotalScore, &r.Level, &r.WarningCodes, &r.AnalyzedAtMs); err != nil {
			return nil, fmt.Errorf("scan score history row: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score history rows: %w", err)
	}
	return out, nil
}

func warningCodes(warnings []domain.Warning) []string {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	return codes
}
