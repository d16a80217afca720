package models

import (
	"testing"
)

func TestSessionValidate(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{
			name: "valid session",
			session: Session{
				Project: "NPX_Learning",
				Animal:  "WT0042",
				Session: "2024-03-01_rec1",
				Dir:     "/data/NPX_Learning/WT0042/2024-03-01_rec1",
			},
			wantErr: false,
		},
		{
			name: "missing project",
			session: Session{
				Animal:  "WT0042",
				Session: "2024-03-01_rec1",
			},
			wantErr: true,
		},
		{
			name: "missing animal",
			session: Session{
				Project: "NPX_Learning",
				Session: "2024-03-01_rec1",
			},
			wantErr: true,
		},
		{
			name: "missing session name",
			session: Session{
				Project: "NPX_Learning",
				Animal:  "WT0042",
			},
			wantErr: true,
		},
		{
			name: "empty file path",
			session: Session{
				Project: "NPX_Learning",
				Animal:  "WT0042",
				Session: "2024-03-01_rec1",
				Files:   []FileEntry{{Path: ""}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionMetaString(t *testing.T) {
	s := Session{Meta: Meta{
		"Recording": String("npx_lin"),
		"Trials":    Number(120),
		"Notes":     Null(),
	}}

	if v, ok := s.MetaString("Recording"); !ok || v != "npx_lin" {
		t.Errorf("MetaString(Recording) = %q, %v", v, ok)
	}
	if v, ok := s.MetaString("Trials"); !ok || v != "120" {
		t.Errorf("MetaString(Trials) = %q, %v", v, ok)
	}
	// Absent key and null key are different: null is present but empty.
	if _, ok := s.MetaString("Missing"); ok {
		t.Error("MetaString(Missing) should report absent")
	}
	if v, ok := s.MetaString("Notes"); !ok || v != "" {
		t.Errorf("MetaString(Notes) = %q, %v; want present empty", v, ok)
	}
}

func TestSessionAddStep(t *testing.T) {
	s := Session{Project: "P", Animal: "A", Session: "S"}

	step, err := s.AddStep("spike_sorting")
	if err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if step.Status != StatusInProgress {
		t.Errorf("new step status = %q, want %q", step.Status, StatusInProgress)
	}

	if _, err := s.AddStep("spike_sorting"); err == nil {
		t.Error("AddStep() should reject a duplicate name")
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := &Session{
		Project: "P", Animal: "A", Session: "S",
		Meta:  Meta{"Recording": String("npx")},
		Files: []FileEntry{{Path: "/data/a.bin", Size: 10}},
		Steps: []Step{{Name: "dlc", Status: StatusInProgress, Params: map[string]any{"model": "resnet"}}},
	}

	c := s.Clone()
	c.Meta["Recording"] = String("fiber")
	c.Files[0].ServerPath = "/server/a.bin"
	c.Steps[0].Status = StatusCompleted
	c.Steps[0].Params["model"] = "other"

	if s.Meta["Recording"].String() != "npx" {
		t.Error("clone shares Meta with original")
	}
	if s.Files[0].ServerPath != "" {
		t.Error("clone shares Files with original")
	}
	if s.Steps[0].Status != StatusInProgress {
		t.Error("clone shares Steps with original")
	}
	if s.Steps[0].Params["model"] != "resnet" {
		t.Error("clone shares step Params with original")
	}
}
