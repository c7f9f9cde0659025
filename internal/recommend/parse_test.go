package recommend

import (
	"reflect"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "plain", raw: `[{"id":1}]`, want: []any{map[string]any{"id": 1.0}}},
		{name: "fenced", raw: "```json\n[{\"id\":1}]\n```", want: []any{map[string]any{"id": 1.0}}},
		{name: "bare fence", raw: "```\n[1]\n```", want: []any{1.0}},
		{name: "prose around", raw: "Here you go:\n[{\"id\":2}]\nGood luck!", want: []any{map[string]any{"id": 2.0}}},
		{name: "object", raw: `Result: {"recommendations":[1]} done`, want: map[string]any{"recommendations": []any{1.0}}},
		{name: "brackets after", raw: "[{\"id\":2,\"reason\":\"x\"}]\nNote: I skipped ids [5].", want: []any{map[string]any{"id": 2.0, "reason": "x"}}},
		{name: "brackets before", raw: "Here are my [top] picks:\n[{\"id\":2}]", want: []any{map[string]any{"id": 2.0}}},
		{name: "list preferred over earlier object", raw: `{"note":"see below"} [{"id":3}]`, want: []any{map[string]any{"id": 3.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeJSON(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestParseRankingToleratesBracketsInProse(t *testing.T) {
	for _, raw := range []string{
		"[{\"id\":2,\"reason\":\"x\"}]\nNote: I skipped ids [5].",
		"Here are my [top] picks:\n[{\"id\":2,\"reason\":\"x\"}]",
	} {
		picks, err := parseRanking(raw, 6, 5)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if len(picks) != 1 || picks[0] != (pick{ID: 2, Reason: "x"}) {
			t.Fatalf("expected only job 2 for %q, got %+v", raw, picks)
		}
	}
}

func TestParseRanking(t *testing.T) {
	picks, err := parseRanking(`{"recommendations": [{"id": 2.0, "reason": " good "}, {"id": 2.5}, {"id": " 4 "}, {"id": true}, 1]}`, 4, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []pick{{ID: 2, Reason: "good"}, {ID: 4}, {ID: 1}}
	if len(picks) != len(want) {
		t.Fatalf("expected %d picks, got %+v", len(want), picks)
	}
	for i := range want {
		if picks[i] != want[i] {
			t.Fatalf("pick %d: expected %+v, got %+v", i, want[i], picks[i])
		}
	}
}

func TestParseRankingRejectsNonArray(t *testing.T) {
	if _, err := parseRanking(`"job 1"`, 3, 3); err == nil {
		t.Fatal("expected error for non-array answer")
	}
	if _, err := parseRanking(`not json`, 3, 3); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
