package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/jobsource"
)

type named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Vacancy is the subset of the hh.ru vacancy schema turned into a job record.
type Vacancy struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Area   named  `json:"area,omitempty"`
	Salary *struct {
		From     *int   `json:"from,omitempty"`
		To       *int   `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Employer     named  `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Schedule     named  `json:"schedule,omitempty"`
	Experience   named  `json:"experience,omitempty"`
	Snippet      struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Search returns up to q.ResultsWanted vacancies matching the search term,
// published within q.MaxAgeHours and located in an area whose name contains q.Location.
func (c *Client) Search(ctx context.Context, q jobsource.Query) ([]jobs.Raw, error) {
	params := url.Values{}
	params.Set("text", q.SearchTerm)
	params.Set("order_by", "publication_time")
	params.Set("per_page", strconv.Itoa(min(max(q.ResultsWanted, 1), maxPerPage)))
	params.Set("period", strconv.Itoa(periodDays(q.MaxAgeHours)))

	// Over-fetch: the location filter is applied client side.
	limit := q.ResultsWanted * 4
	items, err := c.getItems(ctx, c.APIURL+searchPath, params, limit)
	if err != nil {
		return nil, err
	}

	var vacancies []*Vacancy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &vacancies,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode vacancies: %w", err)
	}

	location := strings.ToLower(strings.TrimSpace(q.Location))
	out := make([]jobs.Raw, 0, q.ResultsWanted)
	for _, v := range vacancies {
		if v == nil {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(v.Area.Name), location) {
			continue
		}
		out = append(out, v.Raw())
		if len(out) == q.ResultsWanted {
			break
		}
	}

	return out, nil
}

// Raw converts the vacancy into the generic record shape.
func (v *Vacancy) Raw() jobs.Raw {
	raw := jobs.Raw{
		"id":          v.ID,
		"site":        board,
		"title":       v.Name,
		"company":     v.Employer.Name,
		"location":    v.Area.Name,
		"description": strings.TrimSpace(v.Snippet.Requirement + "\n" + v.Snippet.Responsibility),
		"job_url":     v.AlternateURL,
		"schedule":    v.Schedule.Name,
		"experience":  v.Experience.Name,
		"date_posted": v.PublishedAt,
		"min_amount":  nil,
		"max_amount":  nil,
		"currency":    nil,
	}
	if v.Salary != nil {
		if v.Salary.From != nil {
			raw["min_amount"] = float64(*v.Salary.From)
		}
		if v.Salary.To != nil {
			raw["max_amount"] = float64(*v.Salary.To)
		}
		raw["currency"] = v.Salary.Currency
	}
	return raw
}

func periodDays(hours int) int {
	days := (hours + 23) / 24
	return min(max(days, 1), maxPeriodDays)
}
