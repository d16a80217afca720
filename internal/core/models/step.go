package models

import "fmt"

// StepStatus is the lifecycle state of a preprocessing step.
type StepStatus string

const (
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
)

// Valid reports whether the status is one of the two known states.
func (s StepStatus) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Step is one preprocessing entry attached to a session.
type Step struct {
	Name       string         `json:"name"`
	Params     map[string]any `json:"params"`
	Comments   string         `json:"comments"`
	Status     StepStatus     `json:"status"`
	ResultsDir string         `json:"results_dir,omitempty"`
}

// Complete marks the step completed. The only legal transition is
// in_progress to completed; completing a completed step is a no-op.
func (s *Step) Complete() error {
	switch s.Status {
	case StatusCompleted:
		return nil
	case StatusInProgress, "":
		s.Status = StatusCompleted
		return nil
	default:
		return fmt.Errorf("step %q has unknown status %q", s.Name, s.Status)
	}
}

func (s Step) clone() Step {
	out := s
	out.Params = make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		out.Params[k] = v
	}
	return out
}
