package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/pipeline"
)

type scrapeResponse struct {
	Message string        `json:"message"`
	Count   int           `json:"count"`
	BatchID string        `json:"batch_id"`
	Jobs    []jobs.Record `json:"jobs"`
}

type extractResponse struct {
	Message    string `json:"message"`
	Characters int    `json:"characters"`
	Pages      int    `json:"pages"`
	Language   string `json:"language,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Session.Status())
	}
}

func handleScrapeJobs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		var criteria jobs.Criteria
		if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
			writeError(w, &pipeline.ValidationError{Err: fmt.Errorf("invalid request body: %w", err)})
			return
		}

		batch, err := deps.Aggregator.Aggregate(r.Context(), criteria)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, scrapeResponse{
			Message: fmt.Sprintf("Saved %d jobs", batch.Len()),
			Count:   batch.Len(),
			BatchID: batch.ID,
			Jobs:    batch.Records,
		})
	}
}

func handleExtractPDF(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Multipart framing adds a little on top of the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
		defer r.Body.Close()

		file, _, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, &pipeline.ValidationError{Err: fmt.Errorf("file exceeds %d bytes", maxUploadSize)})
				return
			}
			writeError(w, &pipeline.ValidationError{Err: fmt.Errorf("multipart field \"file\" is required: %w", err)})
			return
		}
		defer file.Close()

		doc, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		if err != nil {
			writeError(w, &pipeline.ValidationError{Err: fmt.Errorf("read upload: %w", err)})
			return
		}
		if len(doc) > maxUploadSize {
			writeError(w, &pipeline.ValidationError{Err: fmt.Errorf("file exceeds %d bytes", maxUploadSize)})
			return
		}

		profile, err := deps.Ingester.Ingest(r.Context(), doc)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, extractResponse{
			Message:    "Resume uploaded and extracted successfully.",
			Characters: utf8.RuneCountInString(profile.RawText),
			Pages:      profile.Pages,
			Language:   profile.Language,
		})
	}
}

func handleRecommend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := deps.Recommender.Recommend(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
