package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalLabels(t *testing.T) {
	c, err := NewLabelCanonicalizer(DefaultLabelRules())
	if err != nil {
		t.Fatalf("failed to build canonicalizer: %v", err)
	}

	cases := []struct{ in, want string }{
		{"Fecha de diagnóstico", "Fecha de diagnóstico"},
		{"Fecha diagnóstico", "Fecha de diagnóstico"},
		{"ESTADIO CLÍNICO", "Estadio Clínico"},
		{"Estadio clínico al ingreso", "Estadio Clínico"},
		{"Hábitos de alimentación", "Hábitos Alimenticios"},
		{"Hábitos tóxicos", "Hábitos Toxicológicos"},
		{"Sexo", "Sexo"},
		{"  Edad ", "Edad"},
	}
	for _, tc := range cases {
		if got := c.Canonical(tc.in); got != tc.want {
			t.Fatalf("Canonical(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalIsIdempotent(t *testing.T) {
	c, err := NewLabelCanonicalizer(DefaultLabelRules())
	if err != nil {
		t.Fatalf("failed to build canonicalizer: %v", err)
	}
	for _, label := range []string{"Fecha diagnóstico", "Estadio clínico VIH", "Hábitos alimenticios", "Hábitos", "Alergias"} {
		once := c.Canonical(label)
		if twice := c.Canonical(once); twice != once {
			t.Fatalf("canonicalization not idempotent for %q: %q then %q", label, once, twice)
		}
	}
}

func TestCanonicalMatchesDecomposedAccents(t *testing.T) {
	c, _ := NewLabelCanonicalizer(DefaultLabelRules())
	if got := c.Canonical("Ha\u0301bitos to\u0301xicos"); got != "Hábitos Toxicológicos" {
		t.Fatalf("expected NFD label to canonicalize, got %q", got)
	}
}

func TestLoadLabelRulesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	content := []byte("rules:\n  - match: prefix\n    patterns: [\"carga viral\"]\n    canonical: CV\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadLabelRules(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c, err := NewLabelCanonicalizer(cfg)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := c.Canonical("Carga viral (copias/ml)"); got != "CV" {
		t.Fatalf("expected CV, got %q", got)
	}
}

func TestNewLabelCanonicalizerRejectsUnknownMatch(t *testing.T) {
	_, err := NewLabelCanonicalizer(LabelRulesConfig{Rules: []LabelRule{{Match: "regex", Patterns: []string{"x"}, Canonical: "X"}}})
	if err == nil {
		t.Fatal("expected error for unknown match kind")
	}
}
