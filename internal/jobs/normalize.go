package jobs

import (
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fieldAliases lists the raw keys consulted, in order, for each first-class field.
var fieldAliases = map[string][]string{
	"site":        {"site", "site_name", "source"},
	"title":       {"title", "name", "job_title"},
	"company":     {"company", "company_name", "employer"},
	"location":    {"location", "city", "area"},
	"description": {"description", "job_description", "snippet"},
	"url":         {"job_url", "url", "job_url_direct", "alternate_url"},
}

// Normalize converts a raw posting into a Record. Missing and non-finite values
// become empty strings; keys not mapped to a field are kept in Extra.
// The returned record has no ID; see Number.
func Normalize(raw Raw) Record {
	clean := make(map[string]any, len(raw))
	for k, v := range raw {
		clean[k] = NormalizeValue(v)
	}

	used := make(map[string]bool)
	pick := func(field string) string {
		for _, key := range fieldAliases[field] {
			v, ok := clean[key]
			if !ok {
				continue
			}
			s := stringify(v)
			if s == "" {
				continue
			}
			used[key] = true
			return s
		}
		return ""
	}

	r := Record{
		Site:        strings.ToLower(CleanText(pick("site"))),
		Title:       CleanText(pick("title")),
		Company:     CleanText(pick("company")),
		Location:    CleanText(pick("location")),
		Description: StripHTML(pick("description")),
		URL:         strings.TrimSpace(pick("url")),
	}
	if r.URL == "" {
		r.URL = NoURL
	}

	for k, v := range clean {
		if used[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return r
}

// NormalizeValue replaces nil, NaN and infinite values with "" at any depth.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ""
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = NormalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = NormalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// Number assigns 1-based position ids in slice order.
func Number(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.ID = i + 1
		out[i] = r
	}
	return out
}

// Dedupe drops repeated postings, keeping the first occurrence. Postings are
// the same when they share a URL, or when both lack one and share title, company and location.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := dedupeKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func dedupeKey(r Record) string {
	if r.URL != "" && r.URL != NoURL {
		return "url:" + strings.ToLower(strings.TrimRight(r.URL, "/"))
	}
	return strings.ToLower(strings.Join([]string{"posting", r.Title, r.Company, r.Location}, "\x00"))
}

// CleanText collapses whitespace, including non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// StripHTML returns the visible text of s when it looks like markup, otherwise s trimmed.
func StripHTML(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, li, div, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = CleanText(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		// hh.ru style nested objects carry a display name.
		if name, ok := val["name"].(string); ok {
			return strings.TrimSpace(name)
		}
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		if val == math.Trunc(val) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%v", val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
