package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/resume"
	"github.com/spigell/job-recommender/internal/session"
)

type stubAggregator struct {
	got   jobs.Criteria
	batch *jobs.Batch
	err   error
}

func (s *stubAggregator) Aggregate(_ context.Context, c jobs.Criteria) (*jobs.Batch, error) {
	s.got = c
	return s.batch, s.err
}

type stubIngester struct {
	got     []byte
	profile *resume.Profile
	err     error
}

func (s *stubIngester) Ingest(_ context.Context, doc []byte) (*resume.Profile, error) {
	s.got = doc
	return s.profile, s.err
}

type stubRecommender struct {
	result *recommend.Result
	err    error
	panics bool
}

func (s *stubRecommender) Recommend(context.Context) (*recommend.Result, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

type stubStatus struct{ status session.Status }

func (s stubStatus) Status() session.Status { return s.status }

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func newDeps() Deps {
	return Deps{
		Aggregator:  &stubAggregator{},
		Ingester:    &stubIngester{},
		Recommender: &stubRecommender{},
		Session:     stubStatus{},
		Logger:      zap.NewNop(),
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func multipartUpload(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "resume.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract-pdf/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestScrapeJobs(t *testing.T) {
	deps := newDeps()
	agg := &stubAggregator{batch: &jobs.Batch{
		ID:      "b-1",
		Records: []jobs.Record{{ID: 1, Title: "Go Dev", URL: "https://x/1"}, {ID: 2, Title: "SRE", URL: jobs.NoURL}},
	}}
	deps.Aggregator = agg

	body := `{"site_name":["indeed"],"search_term":"golang","location":"Pune","results_wanted":2,"country_indeed":"IN","hours_old":24}`
	rr := do(t, NewHandler(deps), httptest.NewRequest(http.MethodPost, "/scrape-jobs/", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, jobs.Criteria{
		Sources:       []string{"indeed"},
		SearchTerm:    "golang",
		Location:      "Pune",
		ResultsWanted: 2,
		CountryCode:   "IN",
		MaxAgeHours:   24,
	}, agg.got)

	var resp scrapeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Saved 2 jobs", resp.Message)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "b-1", resp.BatchID)
	assert.Equal(t, "https://x/1", resp.Jobs[0].URL)
}

func TestScrapeJobsIgnoresExtraFields(t *testing.T) {
	deps := newDeps()
	agg := &stubAggregator{batch: &jobs.Batch{ID: "b-2", Records: []jobs.Record{{ID: 1, Title: "Go Dev"}}}}
	deps.Aggregator = agg

	body := `{"search_term":"golang","location":"Pune","proxies":["http://proxy:3128"],"verbose":2}`
	rr := do(t, NewHandler(deps), httptest.NewRequest(http.MethodPost, "/scrape-jobs/", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "golang", agg.got.SearchTerm)
	assert.Equal(t, "Pune", agg.got.Location)
}

func TestScrapeJobsErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		kind   string
	}{
		{name: "bad json", body: `{"search_term":`, status: http.StatusBadRequest, kind: pipeline.KindValidation},
		{
			name:   "validation",
			body:   `{}`,
			err:    &pipeline.ValidationError{Err: errors.New("search_term is required")},
			status: http.StatusBadRequest,
			kind:   pipeline.KindValidation,
		},
		{
			name:   "not found",
			body:   `{"search_term":"go","location":"Mars"}`,
			err:    &pipeline.NotFoundError{SearchTerm: "go", Location: "Mars"},
			status: http.StatusNotFound,
			kind:   pipeline.KindNotFound,
		},
		{
			name:   "source failure",
			body:   `{"search_term":"go","location":"Pune"}`,
			err:    &pipeline.AggregationError{Err: errors.New("jobspy: bad status")},
			status: http.StatusBadGateway,
			kind:   pipeline.KindAggregation,
		},
		{
			name:   "unexpected",
			body:   `{"search_term":"go","location":"Pune"}`,
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			kind:   pipeline.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newDeps()
			deps.Aggregator = &stubAggregator{err: tt.err}

			rr := do(t, NewHandler(deps), httptest.NewRequest(http.MethodPost, "/scrape-jobs/", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.kind, decodeError(t, rr).Error.Type)
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), decodeError(t, rr).Error.Message)
			}
		})
	}
}

func TestExtractPDF(t *testing.T) {
	deps := newDeps()
	ing := &stubIngester{profile: &resume.Profile{RawText: "Résumé text", Pages: 2, Language: "fr"}}
	deps.Ingester = ing

	rr := do(t, NewHandler(deps), multipartUpload(t, "file", []byte("%PDF-1.4 fake")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte("%PDF-1.4 fake"), ing.got)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 11, resp.Characters)
	assert.Equal(t, 2, resp.Pages)
	assert.Equal(t, "fr", resp.Language)
}

func TestExtractPDFErrors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		rr := do(t, NewHandler(newDeps()), multipartUpload(t, "document", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, pipeline.KindValidation, decodeError(t, rr).Error.Type)
	})

	t.Run("too large", func(t *testing.T) {
		rr := do(t, NewHandler(newDeps()), multipartUpload(t, "file", bytes.Repeat([]byte("a"), maxUploadSize+10)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, pipeline.KindValidation, decodeError(t, rr).Error.Type)
	})

	t.Run("unreadable", func(t *testing.T) {
		deps := newDeps()
		deps.Ingester = &stubIngester{err: &pipeline.UnreadableDocumentError{Reason: "no text could be extracted"}}
		rr := do(t, NewHandler(deps), multipartUpload(t, "file", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, pipeline.KindUnreadableDocument, decodeError(t, rr).Error.Type)
	})

	t.Run("extractor fault", func(t *testing.T) {
		deps := newDeps()
		deps.Ingester = &stubIngester{err: &pipeline.ExtractionError{Err: errors.New("corrupt xref")}}
		rr := do(t, NewHandler(deps), multipartUpload(t, "file", []byte("x")))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, pipeline.KindExtraction, decodeError(t, rr).Error.Type)
	})
}

func TestRecommend(t *testing.T) {
	deps := newDeps()
	deps.Recommender = &stubRecommender{result: &recommend.Result{
		Mode:      recommend.ModeHeuristic,
		Heuristic: true,
		BatchID:   "b-1",
		Recommendations: []recommend.Recommendation{
			{Rank: 1, JobID: 1, Title: "Go Dev", CompanyName: "Acme", JobURL: jobs.NoURL, Reason: recommend.DefaultReason},
		},
	}}

	rr := do(t, NewHandler(deps), httptest.NewRequest(http.MethodPost, "/ai-recommend/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, true, got["heuristic"])
	assert.Equal(t, "heuristic", got["mode"])
	recs := got["recommendations"].([]any)
	require.Len(t, recs, 1)
	assert.Equal(t, "Acme", recs[0].(map[string]any)["company_name"])
}

func TestRecommendPrerequisiteMissing(t *testing.T) {
	deps := newDeps()
	deps.Recommender = &stubRecommender{err: &pipeline.PrerequisiteMissingError{Missing: []string{"jobs", "resume"}}}

	rr := do(t, NewHandler(deps), httptest.NewRequest(http.MethodPost, "/ai-recommend/", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, pipeline.KindPrerequisiteMissing, body.Error.Type)
	assert.Equal(t, "missing prerequisites: jobs and resume must be uploaded first", body.Error.Message)
}

func TestPanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	deps := newDeps()
	deps.Logger = zap.New(core)
	deps.Recommender = &stubRecommender{panics: true}

	rr := do(t, NewHandler(deps), httptest.NewRequest(http.MethodPost, "/ai-recommend/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, pipeline.KindInternal, decodeError(t, rr).Error.Type)
	assert.Len(t, logs.FilterMessage("handler panic").All(), 1)
}

func TestSessionAndHealth(t *testing.T) {
	deps := newDeps()
	deps.Session = stubStatus{status: session.Status{Phase: session.PhaseJobsReady, BatchID: "b-1", JobsCount: 3}}
	h := NewHandler(deps)

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var st session.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, deps.Session.Status(), st)

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestIDAndLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	deps := newDeps()
	deps.Logger = zap.New(core)
	h := NewHandler(deps)

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	generated := rr.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	const inbound = "6f1c2a8e-93b4-4f5d-8a51-2b7c0e9d4f10"
	req.Header.Set(requestIDHeader, inbound)
	rr = do(t, h, req)
	assert.Equal(t, inbound, rr.Header().Get(requestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	fields := entries[1].ContextMap()
	assert.Equal(t, inbound, fields["request_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "/healthz", fields["path"])
}
