package index

import (
	"sync"
	"sync/atomic"

	"github.com/kwidmer/sessidx/internal/core/models"
)

// Handle owns the authoritative Index for one root. Readers take a Snapshot
// and query it without locking; mutations build a replacement Index and swap
// it in, serialized against each other. A query in flight keeps the snapshot
// it started with, so it never observes a half-rebuilt index.
type Handle struct {
	mu      sync.Mutex // serializes Replace/Upsert
	cur     atomic.Pointer[Index]
	version atomic.Uint64
}

// NewHandle wraps an initial index.
func NewHandle(ix *Index) *Handle {
	h := &Handle{}
	if ix == nil {
		ix, _ = Build(nil)
	}
	h.cur.Store(ix)
	return h
}

// Snapshot returns the current index. Safe for concurrent callers.
func (h *Handle) Snapshot() *Index { return h.cur.Load() }

// Version increments on every successful mutation.
func (h *Handle) Version() uint64 { return h.version.Load() }

// Replace swaps in a fully built index, as after a full rescan.
func (h *Handle) Replace(ix *Index) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cur.Store(ix)
	h.version.Add(1)
}

// Upsert inserts or replaces one session by identity key and publishes the
// resulting index. Used by partial scans and in-app edits so the index never
// drifts from disk.
func (h *Handle) Upsert(s *models.Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	next, err := h.cur.Load().Upsert(s)
	if err != nil {
		return err
	}
	h.cur.Store(next)
	h.version.Add(1)
	return nil
}
