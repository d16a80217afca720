// Package syncer copies session files to a per-project server root and
// annotates each file's server_path once the remote copy is confirmed. It
// consumes the index's session list and reports updates back through the
// index handle so server presence never drifts from what is queryable.
package syncer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kwidmer/sessidx/internal/core/index"
	"github.com/kwidmer/sessidx/internal/core/models"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

// copyChunkBytes is the copy buffer size; large enough to saturate network
// shares without holding sessions of raw data in memory.
const copyChunkBytes = 4 * 1024 * 1024

// Stats summarizes one sync run.
type Stats struct {
	Copied    int
	Skipped   int
	Bytes     int64
	Annotated int
}

// Syncer copies files and verifies remote presence.
type Syncer struct {
	store sessionmeta.Store
	log   func(format string, args ...any)
}

// New creates a syncer. The log function may be nil.
func New(store sessionmeta.Store, log func(format string, args ...any)) *Syncer {
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Syncer{store: store, log: log}
}

// SyncProject copies every indexed file of one project under serverRoot,
// then re-verifies each file and updates server_path through the handle and
// the metadata store. Files already present with matching size are skipped.
func (sy *Syncer) SyncProject(ctx context.Context, h *index.Handle, project, serverRoot string) (*Stats, error) {
	stats := &Stats{}
	sessions := h.Snapshot().ProjectSessions(project)
	if len(sessions) == 0 {
		return nil, fmt.Errorf("project %q has no indexed sessions", project)
	}

	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for _, f := range s.Files {
			dst, ok := serverPathFor(s, &f, serverRoot)
			if !ok {
				sy.log("skipping %s: path outside session dir", f.Path)
				stats.Skipped++
				continue
			}
			copied, n, err := sy.copyFile(ctx, f.Path, dst)
			if err != nil {
				return stats, fmt.Errorf("copy %s: %w", f.Path, err)
			}
			if copied {
				stats.Copied++
				stats.Bytes += n
				sy.log("copied %s", relTo(dst, serverRoot))
			} else {
				stats.Skipped++
				sy.log("already on server: %s", relTo(dst, serverRoot))
			}
		}
	}

	annotated, err := sy.Annotate(h, project, serverRoot)
	if err != nil {
		return stats, err
	}
	stats.Annotated = annotated
	return stats, nil
}

// Annotate re-verifies remote presence for every file of a project and
// writes the result back: server_path is set when the remote copy exists and
// cleared when it does not, never left stale. Updated sessions are saved via
// the metadata store and upserted into the index.
func (sy *Syncer) Annotate(h *index.Handle, project, serverRoot string) (int, error) {
	annotated := 0
	for _, s := range h.Snapshot().ProjectSessions(project) {
		edited := s.Clone()
		changed := false
		for i := range edited.Files {
			f := &edited.Files[i]
			dst, ok := serverPathFor(edited, f, serverRoot)
			if !ok {
				continue
			}
			want := ""
			if _, err := os.Stat(dst); err == nil {
				want = dst
			}
			if f.ServerPath != want {
				f.ServerPath = want
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := sy.store.Save(edited.Dir, edited); err != nil {
			return annotated, fmt.Errorf("save %s: %w", edited.Key(), err)
		}
		if err := h.Upsert(edited); err != nil {
			return annotated, err
		}
		annotated++
	}
	return annotated, nil
}

// copyFile copies src to dst unless dst already exists with the same size.
func (sy *Syncer) copyFile(ctx context.Context, src, dst string) (bool, int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, 0, err
	}
	if dstInfo, err := os.Stat(dst); err == nil && dstInfo.Size() == srcInfo.Size() {
		return false, 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return false, 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return false, 0, err
	}

	var copied int64
	buf := make([]byte, copyChunkBytes)
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			_ = out.Close()
			return false, copied, err
		}
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				_ = out.Close()
				return false, copied, werr
			}
			copied += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = out.Close()
			return false, copied, rerr
		}
	}
	if err := out.Close(); err != nil {
		return false, copied, err
	}

	secs := time.Since(start).Seconds()
	if secs > 0 {
		sy.log("%s: %d bytes (%.2f MB/s)", filepath.Base(src), copied, float64(copied)/secs/1024/1024)
	}
	return true, copied, nil
}

// serverPathFor maps a local file path into the server tree, mirroring the
// Project/Animal/Session layout under serverRoot.
func serverPathFor(s *models.Session, f *models.FileEntry, serverRoot string) (string, bool) {
	rel, err := filepath.Rel(s.Dir, f.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.Join(serverRoot, s.Project, s.Animal, s.Session, rel), true
}

func relTo(path, root string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
