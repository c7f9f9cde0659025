// Package pipeline implements the job aggregation and resume ingest stages
// that feed the session state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/filtering"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/session"
)

// Searcher is the job board collaborator.
type Searcher interface {
	Supports(board string) bool
	Search(ctx context.Context, criteria jobs.Criteria) ([]jobs.Raw, error)
}

// Aggregation collects postings and commits them as the session's batch.
type Aggregation struct {
	searcher Searcher
	state    *session.State
	filters  []filtering.Filter
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	last *jobs.Criteria
}

// NewAggregation builds the stage. Filters run on deduplicated postings before numbering.
func NewAggregation(searcher Searcher, state *session.State, log *zap.Logger, filters ...filtering.Filter) *Aggregation {
	return &Aggregation{
		searcher: searcher,
		state:    state,
		filters:  filters,
		logger:   logger.ForStage(log, "aggregation"),
		now:      time.Now,
	}
}

// Aggregate searches the requested boards and replaces the session batch.
// The session is left untouched on any error.
func (a *Aggregation) Aggregate(ctx context.Context, criteria jobs.Criteria) (*jobs.Batch, error) {
	c := criteria.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	var unsupported []error
	for _, board := range c.Sources {
		if !a.searcher.Supports(board) {
			unsupported = append(unsupported, fmt.Errorf("unsupported job board %q", board))
		}
	}
	if len(unsupported) > 0 {
		return nil, &ValidationError{Err: errors.Join(unsupported...)}
	}

	a.logger.Info("searching jobs",
		zap.Strings("sources", c.Sources),
		zap.String("search_term", c.SearchTerm),
		zap.String("location", c.Location),
		zap.Int("results_wanted", c.ResultsWanted),
	)

	raws, err := a.searcher.Search(ctx, c)
	if err != nil {
		a.logger.Warn("job search failed", zap.Error(err))
		return nil, &AggregationError{Err: err}
	}
	if len(raws) == 0 {
		return nil, &NotFoundError{SearchTerm: c.SearchTerm, Location: c.Location}
	}

	records := make([]jobs.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, jobs.Normalize(raw))
	}
	records, err = filtering.Run(ctx, filtering.Deps{Logger: a.logger}, a.filters, jobs.Dedupe(records))
	if err != nil {
		return nil, fmt.Errorf("filter postings: %w", err)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{SearchTerm: c.SearchTerm, Location: c.Location}
	}
	records = jobs.Number(records)

	batch := &jobs.Batch{
		ID:        uuid.NewString(),
		Criteria:  c,
		Records:   records,
		CreatedAt: a.now().UTC(),
	}

	a.state.SetBatch(batch)

	a.mu.Lock()
	a.last = &c
	a.mu.Unlock()

	a.logger.Info("job batch committed",
		zap.String(logger.FieldBatchID, batch.ID),
		zap.Int("fetched", len(raws)),
		zap.Int("kept", len(records)),
	)

	return batch, nil
}

// LastCriteria returns the criteria of the most recent successful aggregation.
func (a *Aggregation) LastCriteria() (jobs.Criteria, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return jobs.Criteria{}, false
	}
	return *a.last, true
}
