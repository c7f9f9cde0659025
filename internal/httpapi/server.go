// Package httpapi exposes the recommendation pipeline over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/resume"
	"github.com/spigell/job-recommender/internal/session"
)

const maxUploadSize = 10 << 20 // 10MB

type Aggregator interface {
	Aggregate(ctx context.Context, criteria jobs.Criteria) (*jobs.Batch, error)
}

type Ingester interface {
	Ingest(ctx context.Context, doc []byte) (*resume.Profile, error)
}

type Recommender interface {
	Recommend(ctx context.Context) (*recommend.Result, error)
}

type StatusReader interface {
	Status() session.Status
}

type Deps struct {
	Aggregator  Aggregator
	Ingester    Ingester
	Recommender Recommender
	Session     StatusReader
	Logger      *zap.Logger
}

// NewHandler returns the router serving every pipeline operation.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(recoverer(deps.Logger))

	r.Get("/healthz", handleHealth)
	r.Get("/session", handleSession(deps))
	r.Post("/scrape-jobs/", handleScrapeJobs(deps))
	r.Post("/extract-pdf/", handleExtractPDF(deps))
	r.Post("/ai-recommend/", handleRecommend(deps))

	return r
}
