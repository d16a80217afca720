package models

import (
	"errors"
	"fmt"
)

// Key identifies a session within an index. The triple is unique per root.
type Key struct {
	Project string
	Animal  string
	Session string
}

// AnimalKey identifies an animal within an index.
type AnimalKey struct {
	Project string
	Animal  string
}

func (k Key) String() string {
	return k.Project + "/" + k.Animal + "/" + k.Session
}

// FileEntry represents one file belonging to a session.
type FileEntry struct {
	Path       string `json:"path"`
	Size       int64  `json:"size,omitempty"`
	ServerPath string `json:"server_path,omitempty"`
}

// Session is one recording unit discovered under root/Project/Animal/Session.
type Session struct {
	Project string
	Animal  string
	Session string
	Trial   string // optional
	Dir     string // session directory on disk

	Meta  Meta        // free-form metadata, identity keys excluded
	Files []FileEntry // ordered as listed in metadata
	Steps []Step      // ordered preprocessing steps
}

// Key returns the identity triple.
func (s *Session) Key() Key {
	return Key{Project: s.Project, Animal: s.Animal, Session: s.Session}
}

// Validate checks the fields every indexed session must carry.
func (s *Session) Validate() error {
	if s.Project == "" {
		return errors.New("project is required")
	}
	if s.Animal == "" {
		return errors.New("animal is required")
	}
	if s.Session == "" {
		return errors.New("session is required")
	}
	for i, f := range s.Files {
		if f.Path == "" {
			return fmt.Errorf("file_list[%d]: path is empty", i)
		}
	}
	return nil
}

// MetaString returns the stringified value for key and whether it is present.
func (s *Session) MetaString(key string) (string, bool) {
	v, ok := s.Meta[key]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Step looks up a preprocessing step by name.
func (s *Session) Step(name string) *Step {
	for i := range s.Steps {
		if s.Steps[i].Name == name {
			return &s.Steps[i]
		}
	}
	return nil
}

// AddStep appends a new in-progress step, rejecting duplicate names.
func (s *Session) AddStep(name string) (*Step, error) {
	if name == "" {
		return nil, errors.New("step name is empty")
	}
	if s.Step(name) != nil {
		return nil, fmt.Errorf("step %q already exists", name)
	}
	s.Steps = append(s.Steps, Step{
		Name:   name,
		Params: map[string]any{},
		Status: StatusInProgress,
	})
	return &s.Steps[len(s.Steps)-1], nil
}

// Clone returns a deep copy so index snapshots never share mutable state
// with callers that go on to edit a session.
func (s *Session) Clone() *Session {
	out := *s
	out.Meta = make(Meta, len(s.Meta))
	for k, v := range s.Meta {
		out.Meta[k] = v
	}
	out.Files = append([]FileEntry(nil), s.Files...)
	out.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		out.Steps[i] = st.clone()
	}
	return &out
}
