// Package batch runs multi-token analysis requests and streams results
// back to the caller as they complete.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/observability"
	"token-risk-engine/internal/storage"
)

// DefaultItemTimeout bounds the analysis of a single token.
const DefaultItemTimeout = 20 * time.Second

// persistTimeout bounds the background store writes for one result.
const persistTimeout = 10 * time.Second

// Analyzer scores a single token.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.TokenRequest) (*domain.RiskScore, error)
}

// QuotaError reports a batch larger than the caller's tier allows.
type QuotaError struct {
	Tier  domain.Tier
	Limit int
	Size  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("batch size %d exceeds limit %d for tier %s", e.Size, e.Limit, e.Tier)
}

// Orchestrator coordinates a batch run: validation, deduplication, quota,
// per-item analysis and persistence.
type Orchestrator struct {
	analyzer Analyzer
	store    storage.RiskScoreStore
	history  storage.ScoreHistoryStore
	timeout  time.Duration
	logger   *log.Logger
}

// Options for creating an Orchestrator. Analyzer is required; Store and
// History are optional and skipped when nil.
type Options struct {
	Analyzer Analyzer
	Store    storage.RiskScoreStore
	History  storage.ScoreHistoryStore
	Timeout  time.Duration
	Logger   *log.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[batch] ", log.LstdFlags)
	}
	return &Orchestrator{
		analyzer: opts.Analyzer,
		store:    opts.Store,
		history:  opts.History,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run processes a batch of token requests sequentially and writes the
// message stream to out. It always closes out, and the last delivered
// message is the done summary. One failing token never aborts the batch;
// only an over-quota batch refuses all work.
func (o *Orchestrator) Run(ctx context.Context, tier domain.Tier, requests []domain.TokenRequest, out chan<- domain.StreamMessage) {
	defer close(out)
	start := time.Now()

	if limit := tier.BatchLimit(); len(requests) > limit {
		observability.RecordQuotaRejected()
		qErr := &QuotaError{Tier: tier, Limit: limit, Size: len(requests)}
		o.emit(ctx, out, domain.ErrorMessage(domain.TokenRequest{}, qErr.Error()))
		o.emit(ctx, out, domain.DoneMessage(0, 0, 0, time.Since(start).Milliseconds()))
		return
	}

	var succeeded, failed, cacheHits int

	// Invalid requests fail immediately; valid ones are deduplicated by
	// identity key, first occurrence wins.
	seen := make(map[string]struct{}, len(requests))
	items := make([]domain.TokenRequest, 0, len(requests))
	for _, req := range requests {
		if err := domain.ValidateAddress(req.Chain, req.Address); err != nil {
			failed++
			o.emit(ctx, out, domain.ErrorMessage(req, err.Error()))
			continue
		}
		key := req.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, req)
	}

	total := len(items)
	for processed, req := range items {
		if ctx.Err() != nil {
			o.logger.Printf("batch cancelled after %d/%d items: %v", processed, total, ctx.Err())
			return
		}

		score, cached, err := o.processItem(ctx, req)
		if err != nil {
			failed++
			o.emit(ctx, out, domain.ErrorMessage(req, o.errText(err)))
		} else {
			succeeded++
			if cached {
				cacheHits++
			} else {
				o.persist(score)
			}
			o.emit(ctx, out, domain.ResultMessage(req.Normalized(), score, cached))
		}
		o.emit(ctx, out, domain.ProgressMessage(processed+1, total))
	}

	duration := time.Since(start)
	observability.RecordBatch(succeeded, failed, duration.Seconds())
	o.emit(ctx, out, domain.DoneMessage(succeeded, failed, cacheHits, duration.Milliseconds()))
}

// processItem serves a single token: fresh stored score if available,
// otherwise a new analysis under the per-item timeout.
func (o *Orchestrator) processItem(ctx context.Context, req domain.TokenRequest) (*domain.RiskScore, bool, error) {
	if o.store != nil {
		score, err := o.store.GetFresh(ctx, req.Chain, req.Address, storage.FreshFor)
		if err == nil {
			return score, true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			o.logger.Printf("store lookup failed for %s: %v", req.Key(), err)
		}
	}

	itemCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	score, err := o.analyzer.Analyze(itemCtx, req)
	if err != nil {
		return nil, false, err
	}
	return score, false, nil
}

// persist writes a fresh score to the store and the history sink in the
// background. Write failures are logged, never surfaced to the stream.
func (o *Orchestrator) persist(score *domain.RiskScore) {
	if o.store == nil && o.history == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if o.store != nil {
			if err := o.store.Upsert(ctx, score); err != nil {
				observability.RecordStoreWriteError("scores")
				o.logger.Printf("score upsert failed for %s: %v", score.Key(), err)
			}
		}
		if o.history != nil {
			if err := o.history.Append(ctx, []*domain.RiskScore{score}); err != nil {
				observability.RecordStoreWriteError("history")
				o.logger.Printf("history append failed for %s: %v", score.Key(), err)
			}
		}
	}()
}

func (o *Orchestrator) errText(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("analysis timed out after %s", o.timeout)
	}
	return err.Error()
}

// emit delivers msg unless ctx is done; a cancelled consumer must not
// block the batch loop.
func (o *Orchestrator) emit(ctx context.Context, out chan<- domain.StreamMessage, msg domain.StreamMessage) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}
