// Package headhunter searches public vacancies on hh.ru.
package headhunter

import (
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

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobsource"
)

const (
	apiURL     = "https://api.hh.ru"
	searchPath = "/vacancies"
	userAgent  = "spigell/job-recommender (spigelly@gmail.com)"
	// Max value for search per page.
	maxPerPage = 100
	// hh.ru accepts a search period of up to 30 days.
	maxPeriodDays = 30
	board         = "headhunter"
)

type Client struct {
	token      string
	logger     *zap.Logger
	limiter    *jobsource.HostLimiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. The token is optional for vacancy search.
func New(logger *zap.Logger, token string, limiter *jobsource.HostLimiter) *Client {
	return &Client{
		token:   strings.TrimSpace(token),
		APIURL:  apiURL,
		limiter: limiter,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Name() string { return board }

func (c *Client) Boards() []string { return []string{board} }

type itemResponse struct {
	Items   []any
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

// getItems makes GET requests to the HeadHunter API and returns items from
// consecutive pages until limit items are collected or pages run out.
func (c *Client) getItems(ctx context.Context, endpoint string, q url.Values, limit int) ([]any, error) {
	var items []any

	for page := 0; ; page++ {
		q.Set("page", strconv.Itoa(page))

		response, err := c.getPage(ctx, endpoint, q)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("got response from HH.ru",
			zap.Int("page", response.Page),
			zap.Int("pages", response.Pages),
			zap.Int("found", response.Found),
		)

		items = append(items, response.Items...)

		if len(items) >= limit || len(response.Items) == 0 || response.Page >= response.Pages-1 {
			break
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (c *Client) getPage(ctx context.Context, endpoint string, q url.Values) (*itemResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	if err := c.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Content-Type", "application/json")
}
