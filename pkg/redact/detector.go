// Package redact masks direct identifiers in key facts before they are embedded
// in an inference prompt. It is a best-effort filter, not de-identification.
package redact

import (
	"regexp"
	"sort"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

type Detector struct {
	rules []compiledRule
}

// Finding summarises what Detect matched.
type Finding struct {
	Types   []string `json:"types"`
	Matches int      `json:"matches"`
}

func NewDetector(cfg RulesConfig) (*Detector, error) {
	var compiled []compiledRule
	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}
	return &Detector{rules: compiled}, nil
}

func (d *Detector) Detect(fields models.Fields) Finding {
	if d == nil {
		return Finding{}
	}
	types := map[string]struct{}{}
	count := 0
	var visit func(value interface{})
	visit = func(value interface{}) {
		switch v := value.(type) {
		case string:
			for _, rule := range d.rules {
				if n := len(rule.re.FindAllStringIndex(v, -1)); n > 0 {
					count += n
					types[rule.rule.Type] = struct{}{}
				}
			}
		case []string:
			for _, s := range v {
				visit(s)
			}
		case []interface{}:
			for _, nested := range v {
				visit(nested)
			}
		case map[string]interface{}:
			for _, nested := range v {
				visit(nested)
			}
		}
	}
	for _, value := range fields {
		visit(value)
	}

	out := Finding{Types: make([]string, 0, len(types)), Matches: count}
	for t := range types {
		out.Types = append(out.Types, t)
	}
	sort.Strings(out.Types)
	return out
}

// Sanitize returns a masked copy; the input is left untouched.
func (d *Detector) Sanitize(fields models.Fields) models.Fields {
	if d == nil {
		return fields
	}
	out := make(models.Fields, len(fields))
	for key, value := range fields {
		out[key] = d.sanitizeValue(value)
	}
	return out
}

func (d *Detector) sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		masked := v
		for _, rule := range d.rules {
			masked = rule.re.ReplaceAllString(masked, rule.rule.Mask)
		}
		return masked
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = d.sanitizeValue(s).(string)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, nested := range v {
			out[i] = d.sanitizeValue(nested)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, nested := range v {
			out[k] = d.sanitizeValue(nested)
		}
		return out
	default:
		return value
	}
}
