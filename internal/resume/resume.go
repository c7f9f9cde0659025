// Package resume turns an uploaded document into the plain-text profile used for matching.
package resume

import (
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/unicode/norm"
)

// Profile is the extracted resume. RawText is never empty.
type Profile struct {
	RawText    string    `json:"raw_text"`
	Language   string    `json:"language,omitempty"`
	Pages      int       `json:"pages"`
	IngestedAt time.Time `json:"ingested_at"`
}

// JoinPages concatenates page texts in document order, NFC-normalizes the
// result and trims surrounding whitespace.
func JoinPages(pages []string) string {
	text := norm.NFC.String(strings.Join(pages, ""))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}

// DetectLanguage returns the ISO 639-1 code of the dominant language, or "" when unknown.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return whatlanggo.DetectLang(text).Iso6391()
}
