package query

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestProjectRows(t *testing.T) {
	ix := npxIndex(t)

	matches := mustEvaluate(t, ix, Query{
		ProjectPattern: "NPX",
		FileMatcher:    &FileMatcher{Mode: FileGlob, Pattern: "continuous.*"},
	})
	table := Project(matches, []string{"Recording", "Experimenter"})

	wantHeader := []string{
		"project", "animal", "session", "session_dir",
		"Recording", "Experimenter",
		"matched_files_count", "file_path",
	}
	if !reflect.DeepEqual(table.Header, wantHeader) {
		t.Errorf("Header = %v", table.Header)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}

	// WT0042 matched two files; the count repeats on both its rows.
	for _, row := range table.Rows[:2] {
		if row[1] != "WT0042" || row[6] != "2" {
			t.Errorf("WT0042 row = %v", row)
		}
	}
	if table.Rows[2][1] != "WT0043" || table.Rows[2][6] != "1" {
		t.Errorf("WT0043 row = %v", table.Rows[2])
	}
}

func TestProjectSessionOnlyRows(t *testing.T) {
	ix := npxIndex(t)
	matches := mustEvaluate(t, ix, Query{ProjectPattern: "Fiber"})
	table := Project(matches, nil)

	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	row := table.Rows[0]
	count, path := row[len(row)-2], row[len(row)-1]
	if count != "0" || path != "" {
		t.Errorf("session-only row count=%q path=%q, want 0 and empty", count, path)
	}
}

func TestProjectAbsentMetaKeyIsEmpty(t *testing.T) {
	ix := npxIndex(t)
	matches := mustEvaluate(t, ix, Query{AnimalPattern: "GC007"})
	table := Project(matches, []string{"Probe"})

	if got := table.Rows[0][4]; got != "" {
		t.Errorf("absent key column = %q, want empty", got)
	}
}

func TestWriteDelimited(t *testing.T) {
	ix := npxIndex(t)
	matches := mustEvaluate(t, ix, Query{ProjectPattern: "Fiber"})
	table := Project(matches, []string{"Recording"})

	var buf bytes.Buffer
	if err := table.WriteDelimited(&buf, ','); err != nil {
		t.Fatalf("WriteDelimited() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "project,animal,session") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "fiber") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestRowMaps(t *testing.T) {
	ix := npxIndex(t)
	matches := mustEvaluate(t, ix, Query{AnimalPattern: "WT0043"})
	maps := Project(matches, []string{"Recording"}).RowMaps()

	if len(maps) != 1 {
		t.Fatalf("got %d maps, want 1", len(maps))
	}
	if maps[0]["animal"] != "WT0043" || maps[0]["Recording"] != "npx_um" {
		t.Errorf("row map = %v", maps[0])
	}
}
