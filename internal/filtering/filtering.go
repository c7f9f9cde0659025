// Package filtering drops unwanted postings from an aggregated batch before it is committed.
package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/spigell/job-recommender/internal/jobs"
)

// Filter represents a single filtering step applied to postings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, deps Deps, records []jobs.Record) ([]jobs.Record, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config lists what the filters exclude.
type Config struct {
	Companies   []string `mapstructure:"companies"`
	Keywords    []string `mapstructure:"keywords"`
	ExcludeFile string   `mapstructure:"exclude-file"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

// FromConfig builds the filter chain. A nil config yields no filters.
func FromConfig(cfg *Config) []Filter {
	if cfg == nil {
		return nil
	}
	return []Filter{
		NewCompanies(cfg.Companies),
		NewKeywords(cfg.Keywords),
		NewExcludeFile(cfg.ExcludeFile),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the surviving postings.
func Run(ctx context.Context, deps Deps, steps []Filter, records []jobs.Record) ([]jobs.Record, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			log.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, deps, records)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		log.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		records = next
	}

	return records, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the records for which drop is false, along with the titles of the dropped ones.
func keep(records []jobs.Record, drop func(jobs.Record) bool) ([]jobs.Record, []string) {
	out := make([]jobs.Record, 0, len(records))
	var removed []string
	for _, r := range records {
		if drop(r) {
			removed = append(removed, r.Title)
			continue
		}
		out = append(out, r)
	}
	return out, removed
}

func foldAll(values []string) []string {
	folder := cases.Fold()
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, folder.String(v))
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
