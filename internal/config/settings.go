package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"feed_triage/internal/model"
)

// Settings is the persisted model selection.
type Settings struct {
	Algo       string           `yaml:"algo"`
	AlgoParams model.Parameters `yaml:"algo_params"`

	// Tags and Domains are where older tagsubscriber selections kept
	// their labels.
	Tags    []string `yaml:"tags,omitempty"`
	Domains []string `yaml:"domains,omitempty"`
}

// LoadSettings reads the selection at path. A missing file returns nil and
// no error: nothing has been selected yet.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if len(s.AlgoParams.Tags) == 0 && len(s.AlgoParams.Domains) == 0 {
		s.AlgoParams.Tags = s.Tags
		s.AlgoParams.Domains = s.Domains
	}
	s.Tags, s.Domains = nil, nil
	return &s, nil
}

// SaveSettings writes the selection to path, replacing it atomically.
func SaveSettings(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// SettingsFile loads and saves the selection at Path.
type SettingsFile struct {
	Path string
}

func (f SettingsFile) Load() (*Settings, error) { return LoadSettings(f.Path) }

func (f SettingsFile) Save(s *Settings) error { return SaveSettings(f.Path, s) }
