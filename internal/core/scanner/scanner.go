// Package scanner walks a root directory laid out as Project/Animal/Session
// and turns session folders into record model instances via the metadata
// store. The three-level convention is load-bearing: sessions nested at any
// other depth are not discovered.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kwidmer/sessidx/internal/core/models"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

// Warning records a session folder that was skipped because its metadata
// could not be parsed. Warnings never abort a scan.
type Warning struct {
	Path   string
	Reason string
}

// Result is the outcome of one scan: sessions in discovery order plus the
// skipped-folder warnings.
type Result struct {
	Sessions []*models.Session
	Warnings []Warning
}

// Scanner discovers sessions under a root.
type Scanner struct {
	store    sessionmeta.Store
	progress ProgressCallback
}

// New creates a scanner backed by the given metadata store.
func New(store sessionmeta.Store) *Scanner {
	return &Scanner{store: store}
}

// SetProgress attaches an optional progress callback.
func (sc *Scanner) SetProgress(p ProgressCallback) { sc.progress = p }

// Scan walks the whole tree. Cancellation is honored between per-animal and
// per-session units of work; a cancelled scan returns ctx.Err() and the
// caller's existing index stays intact.
func (sc *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	projects, err := subdirs(root)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	res := &Result{}
	for _, project := range projects {
		if err := sc.scanProject(ctx, root, project, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// ScanProject scans a single project subtree, for cheap interactive
// re-scans. The result is meant to be merged into an existing index by key.
func (sc *Scanner) ScanProject(ctx context.Context, root, project string) (*Result, error) {
	if _, err := os.Stat(filepath.Join(root, project)); err != nil {
		return nil, fmt.Errorf("project %s: %w", project, err)
	}
	res := &Result{}
	if err := sc.scanProject(ctx, root, project, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanAnimal scans a single animal subtree.
func (sc *Scanner) ScanAnimal(ctx context.Context, root, project, animal string) (*Result, error) {
	animalDir := filepath.Join(root, project, animal)
	if _, err := os.Stat(animalDir); err != nil {
		return nil, fmt.Errorf("animal %s/%s: %w", project, animal, err)
	}
	res := &Result{}
	if err := sc.scanAnimal(ctx, animalDir, res); err != nil {
		return nil, err
	}
	return res, nil
}

// CountSessions walks the tree without loading metadata, for progress totals.
func CountSessions(root string) (int, error) {
	projects, err := subdirs(root)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, project := range projects {
		animals, err := subdirs(filepath.Join(root, project))
		if err != nil {
			continue
		}
		for _, animal := range animals {
			sessions, err := subdirs(filepath.Join(root, project, animal))
			if err != nil {
				continue
			}
			count += len(sessions)
		}
	}
	return count, nil
}

func (sc *Scanner) scanProject(ctx context.Context, root, project string, res *Result) error {
	projectDir := filepath.Join(root, project)
	animals, err := subdirs(projectDir)
	if err != nil {
		res.Warnings = append(res.Warnings, Warning{Path: projectDir, Reason: err.Error()})
		return nil
	}
	for _, animal := range animals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sc.scanAnimal(ctx, filepath.Join(projectDir, animal), res); err != nil {
			return err
		}
	}
	return nil
}

func (sc *Scanner) scanAnimal(ctx context.Context, animalDir string, res *Result) error {
	sessions, err := subdirs(animalDir)
	if err != nil {
		res.Warnings = append(res.Warnings, Warning{Path: animalDir, Reason: err.Error()})
		return nil
	}
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		sessionDir := filepath.Join(animalDir, session)
		s, err := sc.store.Load(sessionDir)
		if errors.Is(err, sessionmeta.ErrNotFound) {
			// No metadata artifact: not a session folder.
			continue
		}
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{Path: sessionDir, Reason: err.Error()})
			continue
		}
		res.Sessions = append(res.Sessions, s)
		if sc.progress != nil {
			sc.progress.Update(s.Key().String())
		}
	}
	return nil
}

// subdirs lists the immediate subdirectories of dir, sorted by name so that
// discovery order is deterministic across rebuilds.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
