package query

import (
	"errors"
	"testing"
)

func TestCompileValidation(t *testing.T) {
	tests := []struct {
		name      string
		q         Query
		wantField string
	}{
		{"empty query compiles", Query{}, ""},
		{"valid patterns compile", Query{ProjectPattern: "NPX.*", AnimalPattern: "WT00"}, ""},
		{"bad project regex", Query{ProjectPattern: "("}, "project_pattern"},
		{"bad animal regex", Query{AnimalPattern: "[z"}, "animal_pattern"},
		{
			"bad predicate regex",
			Query{Predicates: []Predicate{
				{Key: "Recording", Op: OpEquals, Value: "npx"},
				{Key: "Notes", Op: OpRegex, Value: "("},
			}},
			"metadata_predicates[1]",
		},
		{
			"unknown predicate operator",
			Query{Predicates: []Predicate{{Key: "Recording", Op: "like", Value: "npx"}}},
			"metadata_predicates[0]",
		},
		{
			"bad file glob",
			Query{FileMatcher: &FileMatcher{Mode: FileGlob, Pattern: "[unclosed"}},
			"file_matcher",
		},
		{
			"bad file regex",
			Query{FileMatcher: &FileMatcher{Mode: FileRegex, Pattern: "("}},
			"file_matcher",
		},
		{
			"unknown file mode",
			Query{FileMatcher: &FileMatcher{Mode: "fuzzy", Pattern: "x"}},
			"file_matcher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.q.Compile()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Compile() error = %v", err)
				}
				return
			}
			var qe *QueryError
			if !errors.As(err, &qe) {
				t.Fatalf("Compile() error = %v, want QueryError", err)
			}
			if qe.Field != tt.wantField {
				t.Errorf("QueryError.Field = %q, want %q", qe.Field, tt.wantField)
			}
		})
	}
}

func TestSessionSelectorParsing(t *testing.T) {
	c, err := Query{SessionSelector: "s1, s2 ,s3"}.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	for _, want := range []string{"s1", "s2", "s3"} {
		if !c.sessions[want] {
			t.Errorf("selector set missing %q", want)
		}
	}
	if c.sessions["s4"] {
		t.Error("selector set should not contain s4")
	}
}
