package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kwidmer/sessidx/internal/core/models"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func catalogSessions() []*models.Session {
	return []*models.Session{
		{
			Project: "NPX_Learning", Animal: "WT0042", Session: "s1", Trial: "t1",
			Dir:  "/data/NPX_Learning/WT0042/s1",
			Meta: models.Meta{"Recording": models.String("npx_lin"), "Trials": models.Number(120)},
			Files: []models.FileEntry{
				{Path: "/data/NPX_Learning/WT0042/s1/a.bin", Size: 100, ServerPath: "/srv/a.bin"},
				{Path: "/data/NPX_Learning/WT0042/s1/a.meta", Size: 10},
			},
			Steps: []models.Step{
				{Name: "spike_sorting", Status: models.StatusCompleted, Params: map[string]any{"sorter": "ks4"}},
			},
		},
		{
			Project: "Fiber_Stress", Animal: "GC007", Session: "s1",
			Dir:  "/data/Fiber_Stress/GC007/s1",
			Meta: models.Meta{"Recording": models.String("fiber")},
		},
	}
}

func TestReplaceAndLoad(t *testing.T) {
	c := testCatalog(t)
	sessions := catalogSessions()

	info := ScanInfo{Root: "/data", ScannedAt: time.Now(), Indexed: 2, Skipped: 1}
	if err := c.Replace(info, sessions); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	loaded, err := c.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d sessions, want 2", len(loaded))
	}

	// Discovery order survives the round trip.
	if loaded[0].Key() != sessions[0].Key() || loaded[1].Key() != sessions[1].Key() {
		t.Errorf("order = %s, %s", loaded[0].Key(), loaded[1].Key())
	}

	got := loaded[0]
	if got.Trial != "t1" || got.Dir != sessions[0].Dir {
		t.Errorf("identity fields = %+v", got)
	}
	if v, _ := got.MetaString("Recording"); v != "npx_lin" {
		t.Errorf("Recording = %q", v)
	}
	if v, _ := got.MetaString("Trials"); v != "120" {
		t.Errorf("Trials = %q", v)
	}
	if len(got.Files) != 2 || got.Files[0].ServerPath != "/srv/a.bin" {
		t.Errorf("Files = %+v", got.Files)
	}
	if len(got.Steps) != 1 || got.Steps[0].Status != models.StatusCompleted {
		t.Errorf("Steps = %+v", got.Steps)
	}
	if got.Steps[0].Params["sorter"] != "ks4" {
		t.Errorf("Params = %v", got.Steps[0].Params)
	}
}

func TestReplaceClearsPreviousScan(t *testing.T) {
	c := testCatalog(t)
	sessions := catalogSessions()

	if err := c.Replace(ScanInfo{Root: "/data", ScannedAt: time.Now()}, sessions); err != nil {
		t.Fatal(err)
	}
	if err := c.Replace(ScanInfo{Root: "/data", ScannedAt: time.Now()}, sessions[:1]); err != nil {
		t.Fatal(err)
	}

	loaded, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Errorf("got %d sessions after second Replace, want 1", len(loaded))
	}
}

func TestUpsertKeepsPosition(t *testing.T) {
	c := testCatalog(t)
	sessions := catalogSessions()
	if err := c.Replace(ScanInfo{Root: "/data", ScannedAt: time.Now()}, sessions); err != nil {
		t.Fatal(err)
	}

	edited := sessions[0].Clone()
	edited.Meta["Recording"] = models.String("npx_um")
	if err := c.Upsert(edited); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	loaded, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d sessions, want 2", len(loaded))
	}
	if loaded[0].Key() != edited.Key() {
		t.Error("upserted session lost its discovery position")
	}
	if v, _ := loaded[0].MetaString("Recording"); v != "npx_um" {
		t.Errorf("Recording = %q after upsert", v)
	}
}

func TestUpsertAppendsNew(t *testing.T) {
	c := testCatalog(t)
	if err := c.Replace(ScanInfo{Root: "/data", ScannedAt: time.Now()}, catalogSessions()); err != nil {
		t.Fatal(err)
	}

	fresh := &models.Session{
		Project: "NPX_Learning", Animal: "WT0044", Session: "s1",
		Dir: "/data/NPX_Learning/WT0044/s1", Meta: models.Meta{},
	}
	if err := c.Upsert(fresh); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	loaded, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 || loaded[2].Key() != fresh.Key() {
		t.Errorf("new session should append at the end, got %d sessions", len(loaded))
	}
}

func TestLastScan(t *testing.T) {
	c := testCatalog(t)

	if _, ok, err := c.LastScan(); err != nil || ok {
		t.Errorf("LastScan() on empty catalog = ok %v, err %v", ok, err)
	}

	scannedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := c.Replace(ScanInfo{Root: "/data", ScannedAt: scannedAt, Indexed: 2, Skipped: 1}, nil); err != nil {
		t.Fatal(err)
	}

	info, ok, err := c.LastScan()
	if err != nil || !ok {
		t.Fatalf("LastScan() = ok %v, err %v", ok, err)
	}
	if info.Root != "/data" || info.Indexed != 2 || info.Skipped != 1 {
		t.Errorf("info = %+v", info)
	}
	if info.ScannedAt.Unix() != scannedAt.Unix() {
		t.Errorf("ScannedAt = %v, want %v", info.ScannedAt, scannedAt)
	}
}
