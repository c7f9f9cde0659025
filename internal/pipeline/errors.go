package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds classify pipeline errors for transports.
const (
	KindValidation          = "validation_error"
	KindNotFound            = "not_found"
	KindAggregation         = "aggregation_error"
	KindExtraction          = "extraction_error"
	KindUnreadableDocument  = "unreadable_document"
	KindPrerequisiteMissing = "prerequisite_missing"
	KindInternal            = "internal_error"
)

// ValidationError reports malformed input to a stage.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid request: %v", e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError means the sources returned no postings for the criteria.
type NotFoundError struct {
	SearchTerm string
	Location   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no jobs found for %q in %q", e.SearchTerm, e.Location)
}

// AggregationError wraps a job source fault.
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string { return fmt.Sprintf("aggregate jobs: %v", e.Err) }
func (e *AggregationError) Unwrap() error { return e.Err }

// ExtractionError wraps a document extractor fault.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract resume text: %v", e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// UnreadableDocumentError means the document has no usable text.
type UnreadableDocumentError struct {
	Reason string
}

func (e *UnreadableDocumentError) Error() string {
	return fmt.Sprintf("document has no readable text: %s", e.Reason)
}

// PrerequisiteMissingError is returned when a stage runs before the stages it depends on.
type PrerequisiteMissingError struct {
	Missing []string
}

func (e *PrerequisiteMissingError) Error() string {
	return fmt.Sprintf("missing prerequisites: %s must be uploaded first", strings.Join(e.Missing, " and "))
}

// Kind maps an error to its taxonomy name. Unknown errors are internal.
func Kind(err error) string {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		aggregation  *AggregationError
		extraction   *ExtractionError
		unreadable   *UnreadableDocumentError
		prerequisite *PrerequisiteMissingError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &unreadable):
		return KindUnreadableDocument
	case errors.As(err, &prerequisite):
		return KindPrerequisiteMissing
	case errors.As(err, &aggregation):
		return KindAggregation
	case errors.As(err, &extraction):
		return KindExtraction
	default:
		return KindInternal
	}
}
