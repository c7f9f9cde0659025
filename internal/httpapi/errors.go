package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/spigell/job-recommender/internal/pipeline"
)

var statusByKind = map[string]int{
	pipeline.KindValidation:          http.StatusBadRequest,
	pipeline.KindUnreadableDocument:  http.StatusBadRequest,
	pipeline.KindPrerequisiteMissing: http.StatusBadRequest,
	pipeline.KindNotFound:            http.StatusNotFound,
	pipeline.KindAggregation:         http.StatusBadGateway,
	pipeline.KindExtraction:          http.StatusBadGateway,
	pipeline.KindInternal:            http.StatusInternalServerError,
}

func writeError(w http.ResponseWriter, err error) {
	kind := pipeline.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	httpError(w, status, kind, err.Error())
}

func httpError(w http.ResponseWriter, code int, errType, msg string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
