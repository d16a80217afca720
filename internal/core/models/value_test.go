package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"null is empty", Null(), ""},
		{"string passthrough", String("npx_lin"), "npx_lin"},
		{"integer number", Number(42), "42"},
		{"fractional number", Number(2.5), "2.5"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{
			"timestamp as RFC3339",
			Time(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)),
			"2024-03-01T10:30:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueUnmarshalJSON(t *testing.T) {
	var m Meta
	raw := `{
		"Experiment": "learning",
		"Trials": 120,
		"Include": true,
		"Notes": null,
		"DateTime": "2024-03-01T10:30:00",
		"Probe": {"type": "npx2", "channels": 384}
	}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got := m["Experiment"].String(); got != "learning" {
		t.Errorf("Experiment = %q, want %q", got, "learning")
	}
	if got := m["Trials"].String(); got != "120" {
		t.Errorf("Trials = %q, want %q", got, "120")
	}
	if got := m["Include"].String(); got != "true" {
		t.Errorf("Include = %q, want %q", got, "true")
	}
	if got := m["Notes"].String(); got != "" {
		t.Errorf("Notes = %q, want empty", got)
	}
	if m["Notes"].Kind() != KindNull {
		t.Errorf("Notes kind = %v, want KindNull", m["Notes"].Kind())
	}

	// Timestamps arrive as strings but should be recoverable as times.
	ts, ok := m["DateTime"].Time()
	if !ok {
		t.Fatal("DateTime not recognized as a timestamp")
	}
	if ts.Year() != 2024 || ts.Month() != 3 {
		t.Errorf("DateTime = %v, want March 2024", ts)
	}

	// Nested objects flatten to their JSON text so predicates still work.
	if got := m["Probe"].String(); got == "" {
		t.Error("nested object should stringify to JSON text")
	}
}

func TestValueRoundTrip(t *testing.T) {
	m := Meta{
		"Recording":    String("npx_lin"),
		"SessionCount": Number(3),
		"Include":      Bool(true),
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Meta
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for k := range m {
		if m[k].String() != back[k].String() {
			t.Errorf("key %s: %q != %q after round trip", k, m[k].String(), back[k].String())
		}
	}
}
