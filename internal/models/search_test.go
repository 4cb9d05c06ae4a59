package models

import (
	"testing"
)

func TestParseTagExpr(t *testing.T) {
	tags := []string{"AI", "Writing", "code review"}

	tests := []struct {
		query string
		want  bool
	}{
		{"ai", true},
		{"ai AND writing", true},
		{"ai writing", true},
		{"ai AND draft", false},
		{"draft OR writing", true},
		{"NOT draft", true},
		{"ai AND NOT writing", false},
		{"ai XOR writing", false},
		{"ai XOR draft", true},
		{`"code review" AND (draft OR ai)`, true},
		{"(draft OR seo) AND ai", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expr, err := ParseTagExpr(tt.query)
			if err != nil {
				t.Fatalf("ParseTagExpr(%q) error: %v", tt.query, err)
			}
			if got := expr.Match(tags); got != tt.want {
				t.Errorf("%s.Match = %v, want %v", expr, got, tt.want)
			}
		})
	}
}

func TestParseTagExprErrors(t *testing.T) {
	for _, q := range []string{"ai AND", "(ai", "ai)", "OR ai", `"open`} {
		if _, err := ParseTagExpr(q); err == nil {
			t.Errorf("ParseTagExpr(%q) expected error", q)
		}
	}
}

func TestEmptyTagExprMatchesAll(t *testing.T) {
	expr, err := ParseTagExpr("   ")
	if err != nil {
		t.Fatal(err)
	}
	if !expr.Match(nil) {
		t.Error("empty expression should match everything")
	}
}

func TestTagExprString(t *testing.T) {
	expr, err := ParseTagExpr("a OR b AND NOT c")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := expr.String(), "([a] OR ([b] AND NOT [c]))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
