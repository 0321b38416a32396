package redact

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Mask    string `yaml:"mask" json:"mask"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

type RulesConfig struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

func LoadRules(path string) (RulesConfig, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RulesConfig{}, err
	}

	if len(cfg.Rules) == 0 {
		return RulesConfig{}, errors.New("no redaction rules configured")
	}

	return cfg, nil
}

// DefaultRules masks identifiers that the inference service never needs.
func DefaultRules() RulesConfig {
	return RulesConfig{Rules: []Rule{
		{Name: "Document", Type: "document", Pattern: `\bCC-?\s?\d{6,10}\b`, Mask: "CC-**********", Enabled: true},
		{Name: "Email", Type: "email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, Mask: "***@***", Enabled: true},
		{Name: "Mobile", Type: "phone", Pattern: `\b3\d{9}\b`, Mask: "3*********", Enabled: true},
		{Name: "Landline", Type: "phone", Pattern: `\(\d{1,3}\)\s?\d{3}[- ]?\d{4}\b`, Mask: "(***) *******", Enabled: true},
	}}
}
