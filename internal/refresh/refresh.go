// Package refresh re-runs the last successful job search on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
)

const defaultRunTimeout = 5 * time.Minute

// Aggregator is the part of the aggregation stage the refresher drives.
type Aggregator interface {
	Aggregate(ctx context.Context, criteria jobs.Criteria) (*jobs.Batch, error)
	LastCriteria() (jobs.Criteria, bool)
}

type Refresher struct {
	cron       *cron.Cron
	schedule   string
	aggregator Aggregator
	timeout    time.Duration
	logger     *zap.Logger
	group      singleflight.Group
}

// New parses schedule (standard five-field cron or a descriptor such as
// "@every 1h") and returns a stopped refresher.
func New(schedule string, aggregator Aggregator, timeout time.Duration, log *zap.Logger) (*Refresher, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, errors.New("refresh schedule is required")
	}
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}

	r := &Refresher{
		cron:       cron.New(),
		schedule:   schedule,
		aggregator: aggregator,
		timeout:    timeout,
		logger:     logger.ForStage(log, "refresh"),
	}

	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	return r, nil
}

// Start runs the schedule until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.cron.Start()
	r.logger.Info("refresh scheduled", zap.String("schedule", r.schedule))

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
		r.logger.Info("refresh stopped")
	}()
}

// RunOnce repeats the last successful search. Overlapping runs are collapsed
// into one. It reports whether a search was attempted.
func (r *Refresher) RunOnce(ctx context.Context) bool {
	criteria, ok := r.aggregator.LastCriteria()
	if !ok {
		r.logger.Debug("nothing to refresh yet")
		return false
	}

	_, _, _ = r.group.Do("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		batch, err := r.aggregator.Aggregate(rctx, criteria)
		if err != nil {
			r.logger.Warn("refresh failed, keeping current batch", zap.Error(err))
			return nil, err
		}

		r.logger.Info("jobs refreshed",
			zap.String(logger.FieldBatchID, batch.ID),
			zap.Int("count", batch.Len()),
		)
		return nil, nil
	})

	return true
}

// Next returns the next scheduled run time, or the zero time when stopped.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
