// Package catalog persists the result of the last scan in SQLite so
// list/search/stats invocations between scans can load the index without
// re-walking the directory tree.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kwidmer/sessidx/internal/core/models"
)

// Catalog wraps the SQLite connection.
type Catalog struct {
	conn *sql.DB
}

// ScanInfo describes the scan that produced the cataloged index.
type ScanInfo struct {
	Root      string
	ScannedAt time.Time
	Indexed   int
	Skipped   int
}

// Open creates the catalog database and initializes its schema.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite only supports one writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	c := &Catalog{conn: conn}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

// Close closes the connection.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

// Replace swaps the catalog contents for a fresh full scan, atomically.
func (c *Catalog) Replace(info ScanInfo, sessions []*models.Session) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"files", "steps", "sessions", "scans"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for seq, s := range sessions {
		if err := insertSession(tx, s, seq); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO scans (root, scanned_at, indexed, skipped)
		VALUES (?, ?, ?, ?)
	`, info.Root, info.ScannedAt.UTC(), info.Indexed, info.Skipped)
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}

	return tx.Commit()
}

// Upsert inserts or replaces a single session by identity key, keeping its
// discovery position when it already exists and appending otherwise.
func (c *Catalog) Upsert(s *models.Session) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var seq int
	err = tx.QueryRow(`
		SELECT seq FROM sessions WHERE project = ? AND animal = ? AND session = ?
	`, s.Project, s.Animal, s.Session).Scan(&seq)
	switch {
	case err == sql.ErrNoRows:
		if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), -1) + 1 FROM sessions`).Scan(&seq); err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find session: %w", err)
	default:
		_, err = tx.Exec(`
			DELETE FROM sessions WHERE project = ? AND animal = ? AND session = ?
		`, s.Project, s.Animal, s.Session)
		if err != nil {
			return fmt.Errorf("replace session: %w", err)
		}
	}

	if err := insertSession(tx, s, seq); err != nil {
		return err
	}
	return tx.Commit()
}

// Load reads all sessions back in discovery order.
func (c *Catalog) Load() ([]*models.Session, error) {
	rows, err := c.conn.Query(`
		SELECT id, project, animal, session, trial, dir, meta
		FROM sessions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.Session
	var ids []int64
	for rows.Next() {
		var id int64
		var metaJSON string
		s := &models.Session{}
		if err := rows.Scan(&id, &s.Project, &s.Animal, &s.Session, &s.Trial, &s.Dir, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &s.Meta); err != nil {
			return nil, fmt.Errorf("decode meta for %s: %w", s.Key(), err)
		}
		sessions = append(sessions, s)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	for i, id := range ids {
		if err := c.loadFiles(id, sessions[i]); err != nil {
			return nil, err
		}
		if err := c.loadSteps(id, sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// LastScan returns the metadata of the most recent scan, or false when the
// catalog has never been populated.
func (c *Catalog) LastScan() (ScanInfo, bool, error) {
	var info ScanInfo
	err := c.conn.QueryRow(`
		SELECT root, scanned_at, indexed, skipped
		FROM scans ORDER BY id DESC LIMIT 1
	`).Scan(&info.Root, &info.ScannedAt, &info.Indexed, &info.Skipped)
	if err == sql.ErrNoRows {
		return ScanInfo{}, false, nil
	}
	if err != nil {
		return ScanInfo{}, false, err
	}
	return info, true, nil
}

func (c *Catalog) loadFiles(sessionID int64, s *models.Session) error {
	rows, err := c.conn.Query(`
		SELECT path, size, server_path FROM files
		WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return fmt.Errorf("load files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var f models.FileEntry
		if err := rows.Scan(&f.Path, &f.Size, &f.ServerPath); err != nil {
			return fmt.Errorf("scan file row: %w", err)
		}
		s.Files = append(s.Files, f)
	}
	return rows.Err()
}

func (c *Catalog) loadSteps(sessionID int64, s *models.Session) error {
	rows, err := c.conn.Query(`
		SELECT name, params, comments, status, results_dir FROM steps
		WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var step models.Step
		var paramsJSON string
		if err := rows.Scan(&step.Name, &paramsJSON, &step.Comments, &step.Status, &step.ResultsDir); err != nil {
			return fmt.Errorf("scan step row: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &step.Params); err != nil {
			return fmt.Errorf("decode params for step %s: %w", step.Name, err)
		}
		s.Steps = append(s.Steps, step)
	}
	return rows.Err()
}

func insertSession(tx *sql.Tx, s *models.Session, seq int) error {
	metaJSON, err := json.Marshal(s.Meta)
	if err != nil {
		return fmt.Errorf("encode meta for %s: %w", s.Key(), err)
	}

	result, err := tx.Exec(`
		INSERT INTO sessions (project, animal, session, trial, dir, meta, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.Project, s.Animal, s.Session, s.Trial, s.Dir, string(metaJSON), seq)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.Key(), err)
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}

	for i, f := range s.Files {
		_, err := tx.Exec(`
			INSERT INTO files (session_id, path, size, server_path, seq)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, f.Path, f.Size, f.ServerPath, i)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", f.Path, err)
		}
	}

	for i, step := range s.Steps {
		paramsJSON, err := json.Marshal(step.Params)
		if err != nil {
			return fmt.Errorf("encode params for step %s: %w", step.Name, err)
		}
		_, err = tx.Exec(`
			INSERT INTO steps (session_id, name, params, comments, status, results_dir, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, step.Name, string(paramsJSON), step.Comments, string(step.Status), step.ResultsDir, i)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", step.Name, err)
		}
	}
	return nil
}
