// Package jobsource fans a job search out to the configured job board backends.
package jobsource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
)

const defaultSourceTimeout = 2 * time.Minute

// Query is what a single source is asked for.
type Query struct {
	Boards        []string
	SearchTerm    string
	Location      string
	ResultsWanted int
	CountryCode   string
	MaxAgeHours   int
}

// Source is one backend able to search one or more job boards.
type Source interface {
	Name() string
	Boards() []string
	Search(ctx context.Context, q Query) ([]jobs.Raw, error)
}

// Aggregator routes boards to sources and merges their results.
// A board is served by the first registered source that lists it.
type Aggregator struct {
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

func NewAggregator(log *zap.Logger, timeout time.Duration, sources ...Source) *Aggregator {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Aggregator{
		sources: sources,
		timeout: timeout,
		logger:  logger.WithFields(log, zap.String("component", "jobsource")),
	}
}

func (a *Aggregator) Supports(board string) bool {
	return a.sourceFor(board) != nil
}

// Boards lists every board served by the registered sources.
func (a *Aggregator) Boards() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range a.sources {
		for _, b := range s.Boards() {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

func (a *Aggregator) sourceFor(board string) Source {
	board = strings.ToLower(strings.TrimSpace(board))
	for _, s := range a.sources {
		for _, b := range s.Boards() {
			if b == board {
				return s
			}
		}
	}
	return nil
}

// Search queries every source involved in the criteria concurrently. Results are
// merged in source registration order. A failing source is logged and skipped;
// an error is returned only when every involved source failed.
func (a *Aggregator) Search(ctx context.Context, c jobs.Criteria) ([]jobs.Raw, error) {
	plan := make(map[Source][]string)
	var order []Source
	for _, board := range c.Sources {
		s := a.sourceFor(board)
		if s == nil {
			return nil, fmt.Errorf("unsupported job board %q", board)
		}
		if _, ok := plan[s]; !ok {
			order = append(order, s)
		}
		plan[s] = append(plan[s], board)
	}
	if len(order) == 0 {
		return nil, errors.New("no job boards requested")
	}

	results := make([][]jobs.Raw, len(order))
	failures := make([]error, len(order))

	var g errgroup.Group
	for i, s := range order {
		q := Query{
			Boards:        plan[s],
			SearchTerm:    c.SearchTerm,
			Location:      c.Location,
			ResultsWanted: c.ResultsWanted,
			CountryCode:   c.CountryCode,
			MaxAgeHours:   c.MaxAgeHours,
		}

		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			raws, err := s.Search(sctx, q)
			if err != nil {
				a.logger.Warn("job source failed",
					zap.String("source", s.Name()),
					zap.Strings("boards", q.Boards),
					zap.Error(err),
				)
				failures[i] = fmt.Errorf("%s: %w", s.Name(), err)
				return nil
			}

			a.logger.Debug("job source finished",
				zap.String("source", s.Name()),
				zap.Strings("boards", q.Boards),
				zap.Int("count", len(raws)),
			)
			results[i] = raws
			return nil
		})
	}
	_ = g.Wait()

	var merged []jobs.Raw
	failed := 0
	for i := range order {
		if failures[i] != nil {
			failed++
			continue
		}
		merged = append(merged, results[i]...)
	}

	if failed == len(order) {
		return nil, errors.Join(failures...)
	}

	return merged, nil
}
