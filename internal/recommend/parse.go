package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// pick is one validated oracle choice.
type pick struct {
	ID     int
	Reason string
}

// parseRanking validates an oracle answer against the batch ids 1..n. Entries
// with unknown or repeated ids are dropped and the result is cut to target.
func parseRanking(raw string, n, target int) ([]pick, error) {
	data, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse oracle response: %w", err)
	}

	items, ok := asList(data)
	if !ok {
		return nil, fmt.Errorf("parse oracle response: expected a JSON array, got %T", data)
	}

	seen := make(map[int]bool, len(items))
	picks := make([]pick, 0, target)
	for _, item := range items {
		if len(picks) == target {
			break
		}

		var id int
		var reason string
		switch v := item.(type) {
		case map[string]any:
			id, ok = coerceID(v["id"])
			reason = coerceString(v["reason"])
		default:
			id, ok = coerceID(v)
		}

		if !ok || id < 1 || id > n || seen[id] {
			continue
		}
		seen[id] = true
		picks = append(picks, pick{ID: id, Reason: reason})
	}

	return picks, nil
}

// asList accepts a bare array or an object wrapping one.
func asList(data any) ([]any, bool) {
	switch v := data.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range []string{"recommendations", "jobs", "results"} {
			if list, ok := v[key].([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

// decodeJSON strips markdown fences and returns the first JSON array or
// object in raw that decodes. Brackets in surrounding prose and any text
// after the value are ignored. A value holding a ranking list wins over
// an earlier one that does not.
func decodeJSON(raw string) (any, error) {
	raw = stripFences(raw)

	var first any
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' && raw[i] != '{' {
			continue
		}
		var data any
		if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&data); err != nil {
			continue
		}
		if _, ok := asList(data); ok {
			return data, nil
		}
		if first == nil {
			first = data
		}
	}
	if first != nil {
		return first, nil
	}
	return nil, errors.New("no JSON array or object found")
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

func coerceID(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
