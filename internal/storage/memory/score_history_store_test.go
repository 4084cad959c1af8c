package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/storage"
)

func TestScoreHistoryStore_Append(t *testing.T) {
	store := NewScoreHistoryStore()
	ctx := context.Background()

	scores := []*domain.RiskScore{
		testScore("0xabc0000000000000000000000000000000000001", time.Now()),
		testScore("0xabc0000000000000000000000000000000000002", time.Now()),
	}

	if err := store.Append(ctx, scores); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, scores[:1]); err != nil {
		t.Fatalf("Second append failed: %v", err)
	}

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}
	if all[1].TokenAddress != "0xabc0000000000000000000000000000000000002" {
		t.Errorf("Append order not preserved: got %s", all[1].TokenAddress)
	}
}

func TestScoreHistoryStore_AppendEmpty(t *testing.T) {
	store := NewScoreHistoryStore()

	if err := store.Append(context.Background(), nil); err != nil {
		t.Fatalf("Append of empty batch failed: %v", err)
	}
	if len(store.All()) != 0 {
		t.Error("Empty append must not record anything")
	}
}

func TestScoreHistoryStore_InvalidInput(t *testing.T) {
	store := NewScoreHistoryStore()
	ctx := context.Background()

	err := store.Append(ctx, []*domain.RiskScore{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil score, got %v", err)
	}

	err = store.Append(ctx, []*domain.RiskScore{{}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}
}

func TestScoreHistoryStore_ReturnsCopies(t *testing.T) {
	store := NewScoreHistoryStore()
	ctx := context.Background()

	score := testScore("0xabc0000000000000000000000000000000000001", time.Now())
	if err := store.Append(ctx, []*domain.RiskScore{score}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	score.TotalScore = 99

	all := store.All()
	if all[0].TotalScore != 42 {
		t.Error("Store should hold copies, not references")
	}
}
