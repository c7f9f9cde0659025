// Package jobs holds the normalized job posting model shared by the pipeline stages.
package jobs

import (
	"time"
)

// NoURL is stored when a posting carries no link.
const NoURL = "N/A"

// Raw is a single posting as returned by a job source, before normalization.
type Raw map[string]any

// Record is a normalized posting. ID is its 1-based position in the batch.
type Record struct {
	ID          int            `json:"id"`
	Site        string         `json:"site"`
	Title       string         `json:"title"`
	Company     string         `json:"company"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	URL         string         `json:"job_url"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Batch is the committed result of one successful aggregation. It is never mutated after commit.
type Batch struct {
	ID        string    `json:"batch_id"`
	Criteria  Criteria  `json:"criteria"`
	Records   []Record  `json:"jobs"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// Lookup returns the record with the given position id.
func (b *Batch) Lookup(id int) (Record, bool) {
	if b == nil || id < 1 || id > len(b.Records) {
		return Record{}, false
	}
	return b.Records[id-1], true
}

// Head returns the first n records in batch order.
func (b *Batch) Head(n int) []Record {
	if b == nil || n <= 0 {
		return nil
	}
	if n > len(b.Records) {
		n = len(b.Records)
	}
	out := make([]Record, n)
	copy(out, b.Records[:n])
	return out
}
