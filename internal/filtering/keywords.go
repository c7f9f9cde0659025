package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
)

type keywordsFilter struct {
	keywords []string
	disabled bool
	reason   string
}

// NewKeywords creates a filter that removes postings whose title contains any of the keywords.
func NewKeywords(keywords []string) Filter {
	return &keywordsFilter{keywords: foldAll(keywords)}
}

func (f *keywordsFilter) Name() string { return "keywords" }

func (f *keywordsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *keywordsFilter) IsEnabled() bool { return !f.disabled }

func (f *keywordsFilter) Apply(_ context.Context, deps Deps, records []jobs.Record) ([]jobs.Record, Step, error) {
	initial := len(records)
	if len(f.keywords) == 0 {
		return records, Step{Initial: initial, Left: initial}, nil
	}

	left, removed := keep(records, func(r jobs.Record) bool {
		title := fold(r.Title)
		for _, kw := range f.keywords {
			if strings.Contains(title, kw) {
				return true
			}
		}
		return false
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding postings by title keywords",
			zap.Strings("keywords", f.keywords),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(removed), Left: len(left)}, nil
}

func (f *keywordsFilter) Status() Status {
	details := map[string]string{}
	if len(f.keywords) > 0 {
		details["keywords"] = strings.Join(f.keywords, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
