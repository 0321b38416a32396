package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

const (
	MatchExact    = "exact"
	MatchPrefix   = "prefix"
	MatchContains = "contains"
)

// LabelRule rewrites a field label to Canonical when every pattern matches.
type LabelRule struct {
	Match     string   `yaml:"match" json:"match"`
	Patterns  []string `yaml:"patterns" json:"patterns"`
	Canonical string   `yaml:"canonical" json:"canonical"`
}

type LabelRulesConfig struct {
	Rules []LabelRule `yaml:"rules" json:"rules"`
}

func LoadLabelRules(path string) (LabelRulesConfig, error) {
	if path == "" {
		return DefaultLabelRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultLabelRules(), err
	}

	var cfg LabelRulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return LabelRulesConfig{}, err
	}
	if len(cfg.Rules) == 0 {
		return LabelRulesConfig{}, errors.New("no label rules configured")
	}
	return cfg, nil
}

// DefaultLabelRules is evaluated top to bottom; the first matching rule wins.
func DefaultLabelRules() LabelRulesConfig {
	return LabelRulesConfig{Rules: []LabelRule{
		{Match: MatchExact, Patterns: []string{"Fecha de diagnóstico"}, Canonical: "Fecha de diagnóstico"},
		{Match: MatchExact, Patterns: []string{"Fecha diagnóstico"}, Canonical: "Fecha de diagnóstico"},
		{Match: MatchPrefix, Patterns: []string{"estadio clínico"}, Canonical: "Estadio Clínico"},
		{Match: MatchContains, Patterns: []string{"hábitos", "aliment"}, Canonical: "Hábitos Alimenticios"},
		{Match: MatchContains, Patterns: []string{"hábitos"}, Canonical: "Hábitos Toxicológicos"},
	}}
}

type compiledLabelRule struct {
	match     string
	patterns  []string
	canonical string
}

// LabelCanonicalizer applies the label rule table. The zero value leaves labels unchanged.
type LabelCanonicalizer struct {
	rules []compiledLabelRule
}

func NewLabelCanonicalizer(cfg LabelRulesConfig) (*LabelCanonicalizer, error) {
	var compiled []compiledLabelRule
	for i, rule := range cfg.Rules {
		switch rule.Match {
		case MatchExact, MatchPrefix, MatchContains:
		default:
			return nil, fmt.Errorf("label rule %d: unknown match %q", i, rule.Match)
		}
		if len(rule.Patterns) == 0 || strings.TrimSpace(rule.Canonical) == "" {
			return nil, fmt.Errorf("label rule %d: patterns and canonical are required", i)
		}
		patterns := make([]string, 0, len(rule.Patterns))
		for _, p := range rule.Patterns {
			patterns = append(patterns, fold(p))
		}
		compiled = append(compiled, compiledLabelRule{
			match:     rule.Match,
			patterns:  patterns,
			canonical: norm.NFC.String(strings.TrimSpace(rule.Canonical)),
		})
	}
	return &LabelCanonicalizer{rules: compiled}, nil
}

// Canonical returns the canonical form of label, or the NFC-normalized label when no rule matches.
func (c *LabelCanonicalizer) Canonical(label string) string {
	label = norm.NFC.String(strings.TrimSpace(label))
	if c == nil {
		return label
	}
	key := fold(label)
	for _, rule := range c.rules {
		if rule.matches(key) {
			return rule.canonical
		}
	}
	return label
}

func (r compiledLabelRule) matches(key string) bool {
	for _, p := range r.patterns {
		var ok bool
		switch r.match {
		case MatchExact:
			ok = key == p
		case MatchPrefix:
			ok = strings.HasPrefix(key, p)
		case MatchContains:
			ok = strings.Contains(key, p)
		}
		if !ok {
			return false
		}
	}
	return true
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
