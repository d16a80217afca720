// Package index holds the in-memory, queryable collection of sessions
// discovered under one root. An Index is immutable once published; rebuilds
// construct a fresh Index and swap it in through a Handle, so readers always
// see a whole pre- or post-rebuild view.
package index

import (
	"fmt"

	"github.com/kwidmer/sessidx/internal/core/models"
)

// Pair is one row of the flattened (session, file) table.
type Pair struct {
	Session *models.Session
	File    *models.FileEntry
}

// BuildStats reports what Build excluded.
type BuildStats struct {
	Indexed  int
	Rejected int
	Reasons  []string
}

// Index owns all session records for one root. Iteration order is scan
// discovery order and survives rebuilds when the tree has not changed.
type Index struct {
	sessions  []*models.Session
	byKey     map[models.Key]int
	byProject map[string][]int
	byAnimal  map[models.AnimalKey][]int
	pairs     []Pair
}

// Build replaces all contents atomically: it validates each record, drops
// malformed ones into the returned stats, and derives the lookup structures.
func Build(sessions []*models.Session) (*Index, BuildStats) {
	ix := newIndex(len(sessions))
	var stats BuildStats
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			stats.Rejected++
			stats.Reasons = append(stats.Reasons, fmt.Sprintf("%s: %v", s.Dir, err))
			continue
		}
		if prev, dup := ix.byKey[s.Key()]; dup {
			// Same identity seen twice in one scan: last-scan-wins.
			ix.sessions[prev] = s
			continue
		}
		ix.insert(s)
	}
	stats.Indexed = len(ix.sessions)
	ix.derive()
	return ix, stats
}

// Upsert returns a new Index with s inserted or replaced by identity key.
// The receiver is left untouched. A malformed record is rejected with an
// error and no new index is produced.
func (ix *Index) Upsert(s *models.Session) (*Index, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", s.Key(), err)
	}
	out := newIndex(len(ix.sessions) + 1)
	for _, prev := range ix.sessions {
		if prev.Key() == s.Key() {
			out.insert(s)
			s = nil
			continue
		}
		out.insert(prev)
	}
	if s != nil {
		out.insert(s)
	}
	out.derive()
	return out, nil
}

// All returns the sessions in stable discovery order. Callers must not
// mutate the returned slice.
func (ix *Index) All() []*models.Session { return ix.sessions }

// Len returns the number of indexed sessions.
func (ix *Index) Len() int { return len(ix.sessions) }

// Session looks up one record by identity key.
func (ix *Index) Session(key models.Key) (*models.Session, bool) {
	i, ok := ix.byKey[key]
	if !ok {
		return nil, false
	}
	return ix.sessions[i], true
}

// Projects returns the distinct projects in first-seen order.
func (ix *Index) Projects() []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range ix.sessions {
		if !seen[s.Project] {
			seen[s.Project] = true
			out = append(out, s.Project)
		}
	}
	return out
}

// ProjectSessions returns the sessions of one project in discovery order.
func (ix *Index) ProjectSessions(project string) []*models.Session {
	return ix.pick(ix.byProject[project])
}

// AnimalSessions returns the sessions of one animal in discovery order.
func (ix *Index) AnimalSessions(project, animal string) []*models.Session {
	return ix.pick(ix.byAnimal[models.AnimalKey{Project: project, Animal: animal}])
}

// Animals returns the distinct animals of a project in first-seen order.
func (ix *Index) Animals(project string) []string {
	var out []string
	seen := map[string]bool{}
	for _, i := range ix.byProject[project] {
		a := ix.sessions[i].Animal
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// Pairs returns the flattened (session, file) table. Sessions with an empty
// file list contribute a single session-only pair with a nil file.
func (ix *Index) Pairs() []Pair { return ix.pairs }

// ProjectSummary computes the derived project view from current contents.
func (ix *Index) ProjectSummary(project string) models.ProjectSummary {
	return models.SummarizeProject(project, ix.ProjectSessions(project))
}

// AnimalSummary computes the derived animal view from current contents.
func (ix *Index) AnimalSummary(project, animal string) models.AnimalSummary {
	return models.SummarizeAnimal(project, animal, ix.AnimalSessions(project, animal))
}

func newIndex(capacity int) *Index {
	return &Index{
		sessions:  make([]*models.Session, 0, capacity),
		byKey:     make(map[models.Key]int, capacity),
		byProject: map[string][]int{},
		byAnimal:  map[models.AnimalKey][]int{},
	}
}

func (ix *Index) insert(s *models.Session) {
	i := len(ix.sessions)
	ix.sessions = append(ix.sessions, s)
	ix.byKey[s.Key()] = i
	ix.byProject[s.Project] = append(ix.byProject[s.Project], i)
	ak := models.AnimalKey{Project: s.Project, Animal: s.Animal}
	ix.byAnimal[ak] = append(ix.byAnimal[ak], i)
}

func (ix *Index) derive() {
	if len(ix.byKey) != len(ix.sessions) {
		// Unreachable through Build/Upsert; a mismatch means the in-memory
		// structures are internally inconsistent.
		panic("index: duplicate identity keys")
	}
	ix.pairs = ix.pairs[:0]
	for _, s := range ix.sessions {
		if len(s.Files) == 0 {
			ix.pairs = append(ix.pairs, Pair{Session: s})
			continue
		}
		for i := range s.Files {
			ix.pairs = append(ix.pairs, Pair{Session: s, File: &s.Files[i]})
		}
	}
}

func (ix *Index) pick(idxs []int) []*models.Session {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]*models.Session, len(idxs))
	for i, j := range idxs {
		out[i] = ix.sessions[j]
	}
	return out
}
