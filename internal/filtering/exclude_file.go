package filtering

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
)

// ExcludedPostings is the content of an exclude file.
type ExcludedPostings struct {
	Items []ExcludedPosting `json:"items"`
}

// ExcludedPosting identifies a posting to skip by its link.
type ExcludedPosting struct {
	URL   string `json:"job_url"`
	Title string `json:"title,omitempty"`
}

// URLs returns the set of excluded links.
func (e *ExcludedPostings) URLs() map[string]bool {
	urls := make(map[string]bool, len(e.Items))
	for _, item := range e.Items {
		if u := strings.TrimSpace(item.URL); u != "" {
			urls[u] = true
		}
	}
	return urls
}

// LoadExcludedPostings reads an exclude file. An empty file excludes nothing.
func LoadExcludedPostings(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

type excludeFileFilter struct {
	path     string
	disabled bool
	reason   string
}

// NewExcludeFile creates a filter that removes postings listed in an exclude file.
// The file is re-read on every run so it can be edited between refreshes.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, records []jobs.Record) ([]jobs.Record, Step, error) {
	initial := len(records)
	if f.path == "" {
		return records, Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := LoadExcludedPostings(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	urls := excluded.URLs()
	left, removed := keep(records, func(r jobs.Record) bool {
		return urls[r.URL]
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(removed), Left: len(left)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
