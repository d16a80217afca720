package query

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/kwidmer/sessidx/internal/core/index"
	"github.com/kwidmer/sessidx/internal/core/models"
)

// Match is one result row: a session plus the file that matched, or a nil
// file for a session-level match when no file matcher was given.
type Match struct {
	Session *models.Session
	File    *models.FileEntry
}

// Evaluate runs a query against an index snapshot and returns matches in
// index iteration order, file-list order within a session.
func Evaluate(ix *index.Index, q Query) ([]Match, error) {
	c, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return c.Evaluate(ix), nil
}

// Evaluate runs the compiled query. Session-level axes are checked first so
// file lists are only walked for sessions that already passed the cheap
// predicates.
func (c *Compiled) Evaluate(ix *index.Index) []Match {
	var out []Match
	for _, s := range ix.All() {
		if !c.matchSession(s) {
			continue
		}
		if c.file == nil {
			out = append(out, Match{Session: s})
			continue
		}
		for i := range s.Files {
			if c.matchFile(&s.Files[i]) {
				out = append(out, Match{Session: s, File: &s.Files[i]})
			}
		}
	}
	return out
}

func (c *Compiled) matchSession(s *models.Session) bool {
	if c.project != nil && !c.project.MatchString(s.Project) {
		return false
	}
	if c.animal != nil && !c.animal.MatchString(s.Animal) {
		return false
	}
	if c.sessions != nil && !c.sessions[s.Session] {
		return false
	}
	for _, p := range c.preds {
		if !p.match(s) {
			return false
		}
	}
	if c.query.Since != nil || c.query.Until != nil {
		v, ok := s.Meta["DateTime"]
		if !ok {
			return false
		}
		t, ok := v.Time()
		if !ok {
			return false
		}
		if c.query.Since != nil && t.Before(*c.query.Since) {
			return false
		}
		if c.query.Until != nil && t.After(*c.query.Until) {
			return false
		}
	}
	return true
}

func (p *compiledPredicate) match(s *models.Session) bool {
	val, ok := s.MetaString(p.key)
	if !ok {
		return false
	}
	switch p.op {
	case OpEquals:
		return val == p.value
	case OpContains:
		return strings.Contains(val, p.value)
	case OpRegex:
		return p.re.MatchString(val)
	}
	return false
}

func (f *compiledFile) match(entry *models.FileEntry) bool {
	switch f.mode {
	case FileExact:
		return filepath.Base(entry.Path) == f.pattern
	case FileGlob:
		ok, err := path.Match(f.pattern, filepath.Base(entry.Path))
		return err == nil && ok
	case FileRegex:
		return f.re.MatchString(entry.Path)
	}
	return false
}

func (c *Compiled) matchFile(entry *models.FileEntry) bool {
	return c.file.match(entry)
}
