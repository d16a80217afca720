package index

import (
	"fmt"
	"testing"

	"github.com/kwidmer/sessidx/internal/core/models"
)

func testSession(project, animal, session string, files ...string) *models.Session {
	s := &models.Session{
		Project: project,
		Animal:  animal,
		Session: session,
		Dir:     fmt.Sprintf("/data/%s/%s/%s", project, animal, session),
		Meta:    models.Meta{},
	}
	for _, f := range files {
		s.Files = append(s.Files, models.FileEntry{Path: s.Dir + "/" + f, Size: 1})
	}
	return s
}

func TestBuildPreservesDiscoveryOrder(t *testing.T) {
	sessions := []*models.Session{
		testSession("P1", "A1", "s1"),
		testSession("P1", "A1", "s2"),
		testSession("P1", "A2", "s1"),
		testSession("P2", "B1", "s1"),
	}
	ix, stats := Build(sessions)

	if stats.Indexed != 4 || stats.Rejected != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	for i, s := range ix.All() {
		if s != sessions[i] {
			t.Errorf("position %d: got %s, want %s", i, s.Key(), sessions[i].Key())
		}
	}
}

func TestBuildRejectsMalformed(t *testing.T) {
	good := testSession("P1", "A1", "s1")
	bad := &models.Session{Project: "P1", Dir: "/data/P1/broken"}

	ix, stats := Build([]*models.Session{good, bad})
	if ix.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ix.Len())
	}
	if stats.Rejected != 1 || len(stats.Reasons) != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBuildDuplicateKeyLastWins(t *testing.T) {
	first := testSession("P1", "A1", "s1")
	second := testSession("P1", "A1", "s1")
	second.Meta["Recording"] = models.String("fiber")

	ix, _ := Build([]*models.Session{first, second})
	if ix.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ix.Len())
	}
	got, _ := ix.Session(first.Key())
	if v, _ := got.MetaString("Recording"); v != "fiber" {
		t.Errorf("duplicate resolution kept the first record")
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	a := testSession("P1", "A1", "s1")
	b := testSession("P1", "A1", "s2")
	c := testSession("P1", "A2", "s1")
	ix, _ := Build([]*models.Session{a, b, c})

	edited := b.Clone()
	edited.Meta["Recording"] = models.String("npx")
	next, err := ix.Upsert(edited)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Position is preserved, the old index is untouched.
	if next.All()[1] != edited {
		t.Error("upserted session not at its original position")
	}
	if old, _ := ix.Session(b.Key()); old != b {
		t.Error("original index was mutated")
	}

	// Upserting the identical record again changes nothing observable.
	again, err := next.Upsert(edited)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if again.Len() != next.Len() {
		t.Errorf("idempotent upsert changed Len: %d != %d", again.Len(), next.Len())
	}
	for i := range next.All() {
		if again.All()[i].Key() != next.All()[i].Key() {
			t.Errorf("idempotent upsert reordered position %d", i)
		}
	}
}

func TestUpsertAppendsNewSession(t *testing.T) {
	ix, _ := Build([]*models.Session{testSession("P1", "A1", "s1")})
	next, err := ix.Upsert(testSession("P1", "A1", "s2"))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if next.Len() != 2 {
		t.Errorf("Len() = %d, want 2", next.Len())
	}
	if next.All()[1].Session != "s2" {
		t.Error("new session should append at the end")
	}
}

func TestUpsertRejectsMalformed(t *testing.T) {
	ix, _ := Build(nil)
	if _, err := ix.Upsert(&models.Session{}); err == nil {
		t.Error("Upsert() should reject a record without identity")
	}
}

func TestPairsIncludeFilelessSessions(t *testing.T) {
	withFiles := testSession("P1", "A1", "s1", "a.bin", "a.meta")
	without := testSession("P1", "A1", "s2")
	ix, _ := Build([]*models.Session{withFiles, without})

	pairs := ix.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("len(Pairs()) = %d, want 3", len(pairs))
	}
	// The fileless session still yields one row, with no file.
	last := pairs[2]
	if last.Session != without || last.File != nil {
		t.Errorf("fileless pair = %+v", last)
	}
}

func TestLookups(t *testing.T) {
	sessions := []*models.Session{
		testSession("P1", "A1", "s1"),
		testSession("P1", "A2", "s1"),
		testSession("P2", "B1", "s1"),
	}
	ix, _ := Build(sessions)

	if got := ix.Projects(); len(got) != 2 || got[0] != "P1" || got[1] != "P2" {
		t.Errorf("Projects() = %v", got)
	}
	if got := ix.Animals("P1"); len(got) != 2 {
		t.Errorf("Animals(P1) = %v", got)
	}
	if got := ix.ProjectSessions("P1"); len(got) != 2 {
		t.Errorf("ProjectSessions(P1) = %d sessions", len(got))
	}
	if got := ix.AnimalSessions("P1", "A2"); len(got) != 1 {
		t.Errorf("AnimalSessions(P1, A2) = %d sessions", len(got))
	}
	if _, ok := ix.Session(models.Key{Project: "P3", Animal: "X", Session: "s"}); ok {
		t.Error("lookup of unknown key should miss")
	}
}

func TestHandleSnapshotIsolation(t *testing.T) {
	ix, _ := Build([]*models.Session{testSession("P1", "A1", "s1")})
	h := NewHandle(ix)

	snap := h.Snapshot()
	v0 := h.Version()

	if err := h.Upsert(testSession("P1", "A1", "s2")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// The old snapshot is frozen; the new one sees the change.
	if snap.Len() != 1 {
		t.Errorf("old snapshot Len() = %d, want 1", snap.Len())
	}
	if h.Snapshot().Len() != 2 {
		t.Errorf("new snapshot Len() = %d, want 2", h.Snapshot().Len())
	}
	if h.Version() != v0+1 {
		t.Errorf("Version() = %d, want %d", h.Version(), v0+1)
	}
}

func TestHandleReplace(t *testing.T) {
	h := NewHandle(nil)
	if h.Snapshot().Len() != 0 {
		t.Fatal("nil-seeded handle should start empty")
	}
	ix, _ := Build([]*models.Session{testSession("P1", "A1", "s1")})
	h.Replace(ix)
	if h.Snapshot().Len() != 1 {
		t.Error("Replace() did not publish the new index")
	}
}
