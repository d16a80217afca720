package cli

import (
	"testing"

	"github.com/kwidmer/sessidx/internal/core/query"
)

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		expr    string
		want    query.Predicate
		wantErr bool
	}{
		{"Recording==npx_lin", query.Predicate{Key: "Recording", Op: query.OpEquals, Value: "npx_lin"}, false},
		{"Experimenter*=smith", query.Predicate{Key: "Experimenter", Op: query.OpContains, Value: "smith"}, false},
		{"Session~=^2024", query.Predicate{Key: "Session", Op: query.OpRegex, Value: "^2024"}, false},
		{"Recording==", query.Predicate{Key: "Recording", Op: query.OpEquals, Value: ""}, false},
		{"Recording", query.Predicate{}, true},
		{"==npx", query.Predicate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := parsePredicate(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePredicate(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePredicate(%q) = %+v, want %+v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseFileMode(t *testing.T) {
	for mode, want := range map[string]query.FileMode{
		"exact": query.FileExact,
		"glob":  query.FileGlob,
		"regex": query.FileRegex,
	} {
		got, err := parseFileMode(mode)
		if err != nil || got != want {
			t.Errorf("parseFileMode(%q) = %v, %v", mode, got, err)
		}
	}
	if _, err := parseFileMode("fuzzy"); err == nil {
		t.Error("parseFileMode should reject unknown modes")
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-03-01")
	if err != nil {
		t.Fatalf("parseDate() error = %v", err)
	}
	if got.Year() != 2024 || got.Month() != 3 || got.Day() != 1 {
		t.Errorf("parseDate() = %v", got)
	}

	if _, err := parseDate("not a date at all xyz"); err == nil {
		t.Error("parseDate should reject unparseable input")
	}

	// Natural language resolves relative to now.
	if _, err := parseDate("yesterday"); err != nil {
		t.Errorf("parseDate(yesterday) error = %v", err)
	}
}
