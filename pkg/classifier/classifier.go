// Package classifier decides the professional kind of an encounter row from
// its sub-activity text.
package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Rule assigns Kind when the upper-cased sub-activity contains any of Contains.
type Rule struct {
	Kind     models.ProfessionalKind `yaml:"kind" json:"kind"`
	Contains []string                `yaml:"contains" json:"contains"`
}

type RulesConfig struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// DefaultRules is checked in order; medical wins when both kinds would match.
func DefaultRules() RulesConfig {
	return RulesConfig{Rules: []Rule{
		{Kind: models.KindMedical, Contains: []string{"MEDICO"}},
		{Kind: models.KindPharmacological, Contains: []string{"FARMACOTERAPÉUTICO", "QUIMICO"}},
	}}
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
		return RulesConfig{}, errors.New("no classifier rules configured")
	}
	return cfg, nil
}

type Classifier struct {
	rules []Rule
}

func New(cfg RulesConfig) (*Classifier, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for i, r := range cfg.Rules {
		if r.Kind != models.KindMedical && r.Kind != models.KindPharmacological {
			return nil, fmt.Errorf("classifier rule %d: unsupported kind %q", i, r.Kind)
		}
		needles := make([]string, 0, len(r.Contains))
		for _, c := range r.Contains {
			if c = upper(c); c != "" {
				needles = append(needles, c)
			}
		}
		rules = append(rules, Rule{Kind: r.Kind, Contains: needles})
	}
	return &Classifier{rules: rules}, nil
}

// Classify returns KindUnclassified when no rule matches.
func (c *Classifier) Classify(subActivity string) models.ProfessionalKind {
	text := upper(subActivity)
	for _, r := range c.rules {
		for _, needle := range r.Contains {
			if strings.Contains(text, needle) {
				return r.Kind
			}
		}
	}
	return models.KindUnclassified
}

func upper(s string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(s)))
}
