package query

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Fixed leading and trailing columns of a projected table.
var fixedColumns = []string{"project", "animal", "session", "session_dir"}

// Table is the row-oriented projection of a match set, ready for tabular
// display or delimited export.
type Table struct {
	Header []string
	Rows   [][]string
}

// Project flattens matches into rows. Columns are project, animal, session,
// session_dir, the caller-selected metadata keys, matched_files_count and
// file_path. The per-session file count is computed once and repeated across
// that session's file rows; a session-only match reports zero and an empty
// path. Row order is match emission order, stable across repeated queries on
// an unchanged index.
func Project(matches []Match, metaKeys []string) *Table {
	header := append([]string{}, fixedColumns...)
	header = append(header, metaKeys...)
	header = append(header, "matched_files_count", "file_path")

	fileCounts := map[string]int{}
	for _, m := range matches {
		if m.File != nil {
			fileCounts[m.Session.Key().String()]++
		}
	}

	t := &Table{Header: header, Rows: make([][]string, 0, len(matches))}
	for _, m := range matches {
		row := make([]string, 0, len(header))
		row = append(row, m.Session.Project, m.Session.Animal, m.Session.Session, m.Session.Dir)
		for _, key := range metaKeys {
			val, _ := m.Session.MetaString(key)
			row = append(row, val)
		}
		row = append(row, strconv.Itoa(fileCounts[m.Session.Key().String()]))
		if m.File != nil {
			row = append(row, m.File.Path)
		} else {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteDelimited emits header and rows through encoding/csv with the given
// separator, for CSV/TSV export.
func (t *Table) WriteDelimited(w io.Writer, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RowMaps returns each row as a header-keyed map, the shape template
// renderers expect.
func (t *Table) RowMaps() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Header))
		for j, col := range t.Header {
			m[col] = row[j]
		}
		out[i] = m
	}
	return out
}
