// Package jobspy searches LinkedIn, Indeed, Naukri and other boards through a
// JobSpy API service.
package jobspy

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/jobsource"
	"github.com/spigell/job-recommender/internal/utils"
)

const (
	searchPath      = "/api/v1/search_jobs"
	userAgent       = "spigell/job-recommender"
	contentEncoding = "gzip"
	defaultTimeout  = 90 * time.Second
	maxErrorBody    = 2 << 10
)

// SupportedBoards are the site names the JobSpy scraper understands.
var SupportedBoards = []string{"linkedin", "indeed", "naukri", "glassdoor", "zip_recruiter", "google", "bayt", "bdjobs"}

type Config struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"-"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Boards restricts the boards routed to this source. Empty means all supported.
	Boards []string `mapstructure:"boards"`
}

type Client struct {
	apiURL     string
	apiKey     string
	boards     []string
	limiter    *jobsource.HostLimiter
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

type searchResponse struct {
	Count int              `mapstructure:"count"`
	Jobs  []map[string]any `mapstructure:"jobs"`
}

func New(cfg Config, limiter *jobsource.HostLimiter, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("jobspy url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("jobspy url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	boards := SupportedBoards
	if len(cfg.Boards) > 0 {
		boards = nil
		for _, b := range cfg.Boards {
			b = strings.ToLower(strings.TrimSpace(b))
			if b != "" {
				boards = append(boards, b)
			}
		}
	}

	return &Client{
		apiURL:     base,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		boards:     boards,
		limiter:    limiter,
		logger:     logger,
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
	}, nil
}

func (c *Client) Name() string { return "jobspy" }

func (c *Client) Boards() []string { return c.boards }

// Search runs one scrape covering every board in q.
func (c *Client) Search(ctx context.Context, q jobsource.Query) ([]jobs.Raw, error) {
	params := url.Values{}
	for _, b := range q.Boards {
		params.Add("site_name", b)
	}
	params.Set("search_term", q.SearchTerm)
	params.Set("location", q.Location)
	params.Set("results_wanted", strconv.Itoa(q.ResultsWanted))
	params.Set("hours_old", strconv.Itoa(q.MaxAgeHours))
	if q.CountryCode != "" {
		params.Set("country_indeed", q.CountryCode)
	}

	endpoint := c.apiURL + searchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = params.Encode()
	c.setHeaders(req)

	if err := c.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s: %s", resp.Status, utils.TruncateForLog(errorDetail(body), maxErrorBody))
	}

	var payload map[string]any
	if err := json.Unmarshal(sanitizeNonFinite(body), &payload); err != nil {
		return nil, fmt.Errorf("decode jobspy response: %w", err)
	}

	var response searchResponse
	if err := mapstructure.Decode(payload, &response); err != nil {
		return nil, fmt.Errorf("decode jobspy jobs: %w", err)
	}

	out := make([]jobs.Raw, 0, len(response.Jobs))
	for _, j := range response.Jobs {
		out = append(out, jobs.Raw(j))
	}

	c.logger.Debug("got response from jobspy", zap.Int("count", response.Count), zap.Int("jobs", len(out)))
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("User-Agent", c.UserAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

func errorDetail(body []byte) string {
	var envelope struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != nil {
		return fmt.Sprintf("%v", envelope.Detail)
	}
	return string(body)
}

// sanitizeNonFinite rewrites the bare NaN, Infinity and -Infinity tokens that
// Python's json module emits into null, leaving string contents untouched.
func sanitizeNonFinite(data []byte) []byte {
	tokens := [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

	var out bytes.Buffer
	out.Grow(len(data))
	inString, escaped := false, false

	for i := 0; i < len(data); i++ {
		ch := data[i]
		if inString {
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		replaced := false
		for _, tok := range tokens {
			if bytes.HasPrefix(data[i:], tok) {
				out.WriteString("null")
				i += len(tok) - 1
				replaced = true
				break
			}
		}
		if !replaced {
			out.WriteByte(ch)
		}
	}

	return out.Bytes()
}
