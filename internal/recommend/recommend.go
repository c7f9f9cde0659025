// Package recommend ranks the session's job batch against its resume.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/session"
	"github.com/spigell/job-recommender/internal/utils"
)

const (
	ModeOracle    = "oracle"
	ModeHeuristic = "heuristic"

	DefaultReason  = "Resume closely matches job description and required skills."
	DefaultTarget  = 5
	DefaultTimeout = 30 * time.Second
)

type Recommendation struct {
	Rank        int    `json:"rank"`
	JobID       int    `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	JobURL      string `json:"job_url"`
	Reason      string `json:"reason"`
}

type Result struct {
	Mode            string           `json:"mode"`
	Heuristic       bool             `json:"heuristic"`
	FallbackReason  string           `json:"fallback_reason,omitempty"`
	BatchID         string           `json:"batch_id"`
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Options struct {
	Target  int
	Timeout time.Duration
}

// Engine produces recommendations from one consistent session snapshot.
// A nil oracle always yields heuristic results.
type Engine struct {
	state   *session.State
	oracle  Oracle
	target  int
	timeout time.Duration
	logger  *zap.Logger
}

func NewEngine(state *session.State, oracle Oracle, opts Options, log *zap.Logger) *Engine {
	if opts.Target <= 0 {
		opts.Target = DefaultTarget
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Engine{
		state:   state,
		oracle:  oracle,
		target:  opts.Target,
		timeout: opts.Timeout,
		logger:  logger.ForStage(log, "recommendation"),
	}
}

// Recommend ranks the current batch. It fails only when the batch or the
// resume is missing; oracle problems degrade to the heuristic ranking.
func (e *Engine) Recommend(ctx context.Context) (*Result, error) {
	snap := e.state.Snapshot()
	if missing := snap.Missing(); len(missing) > 0 {
		return nil, &pipeline.PrerequisiteMissingError{Missing: missing}
	}

	batch := snap.Batch
	target := min(e.target, batch.Len())
	log := e.logger.With(zap.String(logger.FieldBatchID, batch.ID))

	picks, fallback := e.rank(ctx, snap, target, log)

	result := &Result{
		Mode:            ModeOracle,
		BatchID:         batch.ID,
		Recommendations: make([]Recommendation, 0, len(picks)),
	}
	if fallback != "" {
		result.Mode = ModeHeuristic
		result.Heuristic = true
		result.FallbackReason = fallback
	}

	for i, p := range picks {
		rec, _ := batch.Lookup(p.ID)
		result.Recommendations = append(result.Recommendations, Recommendation{
			Rank:        i + 1,
			JobID:       rec.ID,
			Title:       rec.Title,
			CompanyName: rec.Company,
			JobURL:      utils.FirstNonEmpty(rec.URL, jobs.NoURL),
			Reason:      utils.FirstNonEmpty(p.Reason, DefaultReason),
		})
	}
	result.Message = fmt.Sprintf("Top %d job recommendations based on your resume", len(result.Recommendations))

	e.state.MarkRecommended(snap)

	log.Info("recommendations ready",
		zap.String("mode", result.Mode),
		zap.Int("count", len(result.Recommendations)),
		zap.String("fallback_reason", fallback),
	)

	return result, nil
}

// rank asks the oracle and validates its answer. A non-empty fallback reason
// means the heuristic picks were returned instead.
func (e *Engine) rank(ctx context.Context, snap session.Snapshot, target int, log *zap.Logger) ([]pick, string) {
	if e.oracle == nil {
		return heuristic(snap.Batch, target), "oracle disabled"
	}

	req := OracleRequest{
		ResumeText:     snap.Resume.RawText,
		ResumeLanguage: snap.Resume.Language,
		Target:         target,
		Jobs:           make([]JobBlock, 0, snap.Batch.Len()),
	}
	for _, r := range snap.Batch.Records {
		req.Jobs = append(req.Jobs, JobBlock{
			ID:          r.ID,
			Title:       r.Title,
			Company:     r.Company,
			Location:    r.Location,
			Description: r.Description,
		})
	}

	octx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.oracle.Rank(octx, req)
	if err != nil {
		log.Warn("oracle failed, using heuristic ranking", zap.Error(err))
		return heuristic(snap.Batch, target), "oracle error: " + err.Error()
	}

	picks, err := parseRanking(raw, snap.Batch.Len(), target)
	if err != nil {
		log.Warn("oracle answer rejected, using heuristic ranking", zap.Error(err))
		return heuristic(snap.Batch, target), "invalid oracle answer"
	}
	if len(picks) == 0 {
		log.Warn("oracle answer has no valid job ids, using heuristic ranking")
		return heuristic(snap.Batch, target), "no valid job ids in oracle answer"
	}

	return picks, ""
}

// heuristic picks the first target jobs in batch order.
func heuristic(batch *jobs.Batch, target int) []pick {
	head := batch.Head(target)
	picks := make([]pick, 0, len(head))
	for _, rec := range head {
		picks = append(picks, pick{ID: rec.ID, Reason: DefaultReason})
	}
	return picks
}
