// Package query parses and evaluates compound filter expressions against an
// index snapshot. Evaluation is a pure function of (snapshot, query): it never
// mutates the index and never touches disk.
package query

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// Op is a metadata predicate operator.
type Op string

const (
	OpEquals   Op = "equals"   // exact, case-sensitive string comparison
	OpContains Op = "contains" // substring containment
	OpRegex    Op = "regex"    // partial regex match
)

// Predicate is one (key, operator, value) test against session metadata.
// A predicate referencing a key the session does not carry evaluates to
// false, not an error.
type Predicate struct {
	Key   string
	Op    Op
	Value string
}

// FileMode selects how the file matcher interprets its pattern.
type FileMode string

const (
	FileExact FileMode = "exact" // base name equals the pattern
	FileGlob  FileMode = "glob"  // shell wildcards against the base name
	FileRegex FileMode = "regex" // partial regex against the full path
)

// FileMatcher selects which files within a session's file list count as
// matches. Exact and glob target the base name ("find this file"); regex
// deliberately matches the full path ("find this path").
type FileMatcher struct {
	Mode    FileMode
	Pattern string
}

// Query is a compound filter. Every field is optional; an absent field
// matches all on that axis.
type Query struct {
	ProjectPattern  string // partial regex against the project field
	AnimalPattern   string // partial regex against the animal field
	SessionSelector string // literal value or comma-separated set, exact match
	Predicates      []Predicate
	FileMatcher     *FileMatcher

	// Since/Until bound the session's DateTime metadata key. A session
	// without a parseable DateTime fails a bound the same way an absent
	// predicate key does.
	Since *time.Time
	Until *time.Time
}

// QueryError reports an invalid query with the offending field named, so the
// caller can surface a field-level message instead of a partial result set.
type QueryError struct {
	Field string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query field %s: %v", e.Field, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Compiled is a validated query ready for evaluation.
type Compiled struct {
	query    Query
	project  *regexp.Regexp
	animal   *regexp.Regexp
	sessions map[string]bool
	preds    []compiledPredicate
	file     *compiledFile
}

type compiledPredicate struct {
	key   string
	op    Op
	value string
	re    *regexp.Regexp
}

type compiledFile struct {
	mode    FileMode
	pattern string
	re      *regexp.Regexp
}

// Compile validates every pattern up front. All failures carry the field
// name; evaluation of a compiled query cannot fail.
func (q Query) Compile() (*Compiled, error) {
	c := &Compiled{query: q}

	var err error
	if q.ProjectPattern != "" {
		if c.project, err = regexp.Compile(q.ProjectPattern); err != nil {
			return nil, &QueryError{Field: "project_pattern", Err: err}
		}
	}
	if q.AnimalPattern != "" {
		if c.animal, err = regexp.Compile(q.AnimalPattern); err != nil {
			return nil, &QueryError{Field: "animal_pattern", Err: err}
		}
	}
	if q.SessionSelector != "" {
		c.sessions = map[string]bool{}
		for _, part := range strings.Split(q.SessionSelector, ",") {
			c.sessions[strings.TrimSpace(part)] = true
		}
	}
	for i, p := range q.Predicates {
		cp := compiledPredicate{key: p.Key, op: p.Op, value: p.Value}
		switch p.Op {
		case OpEquals, OpContains:
		case OpRegex:
			if cp.re, err = regexp.Compile(p.Value); err != nil {
				return nil, &QueryError{Field: fmt.Sprintf("metadata_predicates[%d]", i), Err: err}
			}
		default:
			return nil, &QueryError{
				Field: fmt.Sprintf("metadata_predicates[%d]", i),
				Err:   fmt.Errorf("unknown operator %q", p.Op),
			}
		}
		c.preds = append(c.preds, cp)
	}
	if q.FileMatcher != nil {
		cf := &compiledFile{mode: q.FileMatcher.Mode, pattern: q.FileMatcher.Pattern}
		switch q.FileMatcher.Mode {
		case FileExact:
		case FileGlob:
			if _, err := path.Match(cf.pattern, ""); err != nil {
				return nil, &QueryError{Field: "file_matcher", Err: err}
			}
		case FileRegex:
			if cf.re, err = regexp.Compile(cf.pattern); err != nil {
				return nil, &QueryError{Field: "file_matcher", Err: err}
			}
		default:
			return nil, &QueryError{
				Field: "file_matcher",
				Err:   fmt.Errorf("unknown mode %q", q.FileMatcher.Mode),
			}
		}
		c.file = cf
	}
	return c, nil
}
