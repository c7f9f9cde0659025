package filtering

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
)

type companiesFilter struct {
	companies []string
	disabled  bool
	reason    string
}

// NewCompanies creates a filter that removes postings by companies configured in the config.
// Company names are compared case-insensitively.
func NewCompanies(companies []string) Filter {
	return &companiesFilter{companies: foldAll(companies)}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return !f.disabled }

func (f *companiesFilter) Apply(_ context.Context, deps Deps, records []jobs.Record) ([]jobs.Record, Step, error) {
	initial := len(records)
	if len(f.companies) == 0 {
		return records, Step{Initial: initial, Left: initial}, nil
	}

	left, removed := keep(records, func(r jobs.Record) bool {
		return slices.Contains(f.companies, fold(r.Company))
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding postings by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(removed), Left: len(left)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
