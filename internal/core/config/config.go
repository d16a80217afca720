package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds user settings from ~/.config/sessidx/config.toml. Defaults
// apply when the file is absent; server roots learned at sync time are
// written back so the next sync remembers them.
type Config struct {
	RawRoot         string            `toml:"raw_root"`
	ProcessedRoot   string            `toml:"processed_root"`
	ServerRoots     map[string]string `toml:"server_roots"`
	StepMenus       map[string][]string `toml:"step_menus"`
	AnimalSuffixLen int               `toml:"animal_suffix_len"`

	path string
}

// DefaultStepMenus maps recording modality to its predefined preprocessing
// step names. Injected as data so the record model stays free of modality
// branching; users extend or replace these in config.toml.
var DefaultStepMenus = map[string][]string{
	"npx":       {"spike_sorting", "curation", "histology", "time_sync", "dlc"},
	"fiber":     {"artefact_removal", "delta_F/F", "time_sync", "dlc"},
	"behaviour": {"manual_scoring", "DLC", "lisbet"},
}

// Path returns the location of the config file.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("~", ".config", "sessidx", "config.toml")
	}
	return filepath.Join(home, ".config", "sessidx", "config.toml")
}

// Load reads the config file, falling back to defaults when it is missing.
func Load() (*Config, error) {
	cfg := &Config{
		ServerRoots:     map[string]string{},
		StepMenus:       map[string][]string{},
		AnimalSuffixLen: 5,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil // use defaults
	}
	cfg.path = filepath.Join(home, ".config", "sessidx", "config.toml")

	if _, err := os.Stat(cfg.path); err == nil {
		if _, err := toml.DecodeFile(cfg.path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.path, err)
		}
	}
	if cfg.ServerRoots == nil {
		cfg.ServerRoots = map[string]string{}
	}
	if cfg.AnimalSuffixLen <= 0 {
		cfg.AnimalSuffixLen = 5
	}
	for modality, steps := range DefaultStepMenus {
		if _, ok := cfg.StepMenus[modality]; !ok {
			if cfg.StepMenus == nil {
				cfg.StepMenus = map[string][]string{}
			}
			cfg.StepMenus[modality] = steps
		}
	}
	return cfg, nil
}

// Save writes the config back to disk.
func (c *Config) Save() error {
	if c.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return toml.NewEncoder(f).Encode(c)
}

// ServerRoot returns the remembered server root for a project, if any.
func (c *Config) ServerRoot(project string) string {
	return c.ServerRoots[project]
}

// SetServerRoot remembers a project's server root and persists it.
func (c *Config) SetServerRoot(project, root string) error {
	c.ServerRoots[project] = root
	return c.Save()
}

// StepChoices resolves the step menu for a session's Recording value. The
// mapping mirrors how recordings are named in practice: anything mentioning
// npx or neuro is a probe recording, fiber is photometry, everything else is
// treated as behaviour.
func (c *Config) StepChoices(recording string) []string {
	rec := strings.ToLower(recording)
	switch {
	case strings.Contains(rec, "npx") || strings.Contains(rec, "neuro"):
		return c.StepMenus["npx"]
	case strings.Contains(rec, "fiber"):
		return c.StepMenus["fiber"]
	default:
		return c.StepMenus["behaviour"]
	}
}
