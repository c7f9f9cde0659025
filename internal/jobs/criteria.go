package jobs

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultResultsWanted = 5
	DefaultCountryCode   = "IN"
	DefaultMaxAgeHours   = 72
)

// DefaultSources are the boards searched when none are requested.
var DefaultSources = []string{"linkedin", "indeed", "naukri"}

// Criteria describes one aggregation request.
type Criteria struct {
	Sources       []string `json:"site_name" mapstructure:"sources"`
	SearchTerm    string   `json:"search_term" mapstructure:"search-term"`
	Location      string   `json:"location" mapstructure:"location"`
	ResultsWanted int      `json:"results_wanted" mapstructure:"results-wanted"`
	CountryCode   string   `json:"country_indeed" mapstructure:"country"`
	MaxAgeHours   int      `json:"hours_old" mapstructure:"max-age-hours"`
}

// WithDefaults fills unset optional fields. Sources are lowercased and de-duplicated.
func (c Criteria) WithDefaults() Criteria {
	out := c
	out.SearchTerm = strings.TrimSpace(c.SearchTerm)
	out.Location = strings.TrimSpace(c.Location)
	out.CountryCode = strings.TrimSpace(c.CountryCode)

	sources := make([]string, 0, len(c.Sources))
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		sources = append(sources, s)
	}
	if len(sources) == 0 {
		sources = append(sources, DefaultSources...)
	}
	out.Sources = sources

	if out.ResultsWanted == 0 {
		out.ResultsWanted = DefaultResultsWanted
	}
	if out.CountryCode == "" {
		out.CountryCode = DefaultCountryCode
	}
	if out.MaxAgeHours == 0 {
		out.MaxAgeHours = DefaultMaxAgeHours
	}
	return out
}

// Validate reports every problem found in the criteria.
func (c Criteria) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SearchTerm) == "" {
		errs = append(errs, errors.New("search term is required"))
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, errors.New("location is required"))
	}
	if c.ResultsWanted <= 0 {
		errs = append(errs, fmt.Errorf("results wanted must be positive, got %d", c.ResultsWanted))
	}
	if c.MaxAgeHours <= 0 {
		errs = append(errs, fmt.Errorf("max age hours must be positive, got %d", c.MaxAgeHours))
	}
	return errors.Join(errs...)
}
