package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kwidmer/sessidx/internal/core/models"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

// statWorkers bounds concurrent stat calls during a file list rebuild;
// session folders on network shares punish unbounded fan-out.
const statWorkers = 8

// ScanFileList rebuilds a session's file list from disk. Metadata artifacts
// themselves are excluded. Sizes are best-effort: a file that disappears
// between walk and stat keeps a zero size rather than failing the scan.
func ScanFileList(ctx context.Context, sessionDir string) ([]models.FileEntry, error) {
	var paths []string
	err := filepath.WalkDir(sessionDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == sessionmeta.MetaFileName || d.Name() == sessionmeta.AnimalInfoFileName {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	entries := make([]models.FileEntry, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(statWorkers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = models.FileEntry{Path: path}
			if info, err := os.Stat(path); err == nil {
				entries[i].Size = info.Size()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
