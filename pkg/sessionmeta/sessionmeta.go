// Package sessionmeta reads and writes the per-session metadata artifact
// (metadata.json) that marks a directory as a recording session. The indexing
// core depends only on the Store interface, not on the on-disk encoding.
package sessionmeta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kwidmer/sessidx/internal/core/models"
)

// MetaFileName is the metadata artifact a session folder must carry.
const MetaFileName = "metadata.json"

// AnimalInfoFileName holds per-animal attributes next to the session folders.
const AnimalInfoFileName = "animal_info.json"

// ErrNotFound is returned when a directory holds no metadata artifact,
// distinguishing "not a session folder" from a real parse or IO failure.
var ErrNotFound = errors.New("no session metadata found")

// Store loads and saves session records for a session directory.
type Store interface {
	Load(dir string) (*models.Session, error)
	Save(dir string, s *models.Session) error
}

// Reserved top-level keys that map to struct fields rather than free-form
// metadata.
var reservedKeys = map[string]bool{
	"Project":       true,
	"Animal":        true,
	"Session":       true,
	"Trial":         true,
	"file_list":     true,
	"preprocessing": true,
}

// JSONStore is the metadata.json implementation of Store.
type JSONStore struct{}

// NewJSONStore returns the default on-disk store.
func NewJSONStore() *JSONStore { return &JSONStore{} }

// Load parses dir/metadata.json into a session record. Identity fields
// missing from the file are recovered from the directory path, so trees
// written by hand still index.
func (st *JSONStore) Load(dir string) (*models.Session, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetaFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	s := &models.Session{
		Dir:  dir,
		Meta: models.Meta{},
	}
	s.Project = stringField(raw, "Project")
	s.Animal = stringField(raw, "Animal")
	s.Session = stringField(raw, "Session")
	s.Trial = stringField(raw, "Trial")

	if msg, ok := raw["file_list"]; ok {
		if err := json.Unmarshal(msg, &s.Files); err != nil {
			return nil, fmt.Errorf("parse file_list: %w", err)
		}
	}
	if msg, ok := raw["preprocessing"]; ok {
		if err := json.Unmarshal(msg, &s.Steps); err != nil {
			return nil, fmt.Errorf("parse preprocessing: %w", err)
		}
	}
	for i, step := range s.Steps {
		if step.Status != "" && !step.Status.Valid() {
			return nil, fmt.Errorf("preprocessing[%d]: unknown status %q", i, step.Status)
		}
	}

	for key, msg := range raw {
		if reservedKeys[key] {
			continue
		}
		var v models.Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, fmt.Errorf("parse key %q: %w", key, err)
		}
		s.Meta[key] = v
	}

	// Recover identity from the path layout when the file omits it.
	if s.Session == "" {
		s.Session = filepath.Base(dir)
	}
	if s.Animal == "" {
		s.Animal = filepath.Base(filepath.Dir(dir))
	}
	if s.Project == "" {
		s.Project = filepath.Base(filepath.Dir(filepath.Dir(dir)))
	}

	return s, nil
}

// Save writes the session record back to dir/metadata.json.
func (st *JSONStore) Save(dir string, s *models.Session) error {
	out := map[string]any{
		"Project": s.Project,
		"Animal":  s.Animal,
		"Session": s.Session,
	}
	if s.Trial != "" {
		out["Trial"] = s.Trial
	}
	for k, v := range s.Meta {
		out[k] = v
	}
	out["file_list"] = s.Files
	out["preprocessing"] = s.Steps
	if s.Steps == nil {
		out["preprocessing"] = []models.Step{}
	}
	if s.Files == nil {
		out["file_list"] = []models.FileEntry{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetaFileName), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadAnimalInfo reads the free-form animal attributes stored next to the
// session folders. A missing file is an empty mapping, not an error.
func LoadAnimalInfo(animalDir string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(animalDir, AnimalInfoFileName))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read animal info: %w", err)
	}
	var info map[string]any
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse animal info: %w", err)
	}
	return info, nil
}

// SaveAnimalInfo writes the animal attributes file.
func SaveAnimalInfo(animalDir string, info map[string]any) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode animal info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(animalDir, AnimalInfoFileName), data, 0644); err != nil {
		return fmt.Errorf("write animal info: %w", err)
	}
	return nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	msg, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	// Tolerate numeric session/trial identifiers.
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return n.String()
	}
	return ""
}
