package enrich

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kwidmer/sessidx/internal/core/index"
	"github.com/kwidmer/sessidx/pkg/sessionmeta"
)

// Record is one row of an external animal table: the ID column plus every
// other column keyed by its header.
type Record struct {
	ID     string
	Fields map[string]string
}

// ImportStats summarizes one CSV import run.
type ImportStats struct {
	Rows      int
	Applied   int
	Unmatched []string
}

// ReadCSV parses an animal table. The ID column is detected from common
// header spellings (id, animal_id, mouse_id, subject_id, or anything ending
// in "id" after normalization); rows with an empty ID are skipped.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idCol := detectIDColumn(header)
	if idCol < 0 {
		return nil, fmt.Errorf("no ID column found in header %v", header)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if idCol >= len(row) || strings.TrimSpace(row[idCol]) == "" {
			continue
		}
		rec := Record{ID: strings.TrimSpace(row[idCol]), Fields: map[string]string{}}
		for i, cell := range row {
			if i == idCol || i >= len(header) {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				rec.Fields[header[i]] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// detectIDColumn picks the header most likely to hold the animal ID.
func detectIDColumn(header []string) int {
	preferred := []string{"id", "animalid", "mouseid", "subjectid", "animal"}
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	for _, want := range preferred {
		for i, h := range norm {
			if h == want {
				return i
			}
		}
	}
	for i, h := range norm {
		if strings.HasSuffix(h, "id") {
			return i
		}
	}
	return -1
}

// normalizeHeader lowercases and strips the BOM plus every non-alphanumeric
// rune, so "Animal ID" and "animal_id" compare equal.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ApplyCSV matches each record against the indexed animals of a project and
// writes the record's fields into the animal's animal_info.json. Ambiguous
// matches abort; unmatched IDs are reported in the stats.
func ApplyCSV(ix *index.Index, m Matcher, root, project, csvPath string) (*ImportStats, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", csvPath, err)
	}

	animals := ix.Animals(project)
	if len(animals) == 0 {
		return nil, fmt.Errorf("project %q has no indexed animals", project)
	}

	stats := &ImportStats{Rows: len(records)}
	for _, rec := range records {
		animal, ok, err := ResolveAnimal(m, rec.ID, animals)
		if err != nil {
			return stats, err
		}
		if !ok {
			stats.Unmatched = append(stats.Unmatched, rec.ID)
			continue
		}
		dir := filepath.Join(root, project, animal)
		info, err := sessionmeta.LoadAnimalInfo(dir)
		if err != nil {
			return stats, fmt.Errorf("animal %s: %w", animal, err)
		}
		if info == nil {
			info = map[string]any{}
		}
		info["external_id"] = rec.ID
		for k, v := range rec.Fields {
			info[k] = v
		}
		if err := sessionmeta.SaveAnimalInfo(dir, info); err != nil {
			return stats, fmt.Errorf("animal %s: %w", animal, err)
		}
		stats.Applied++
	}
	return stats, nil
}
