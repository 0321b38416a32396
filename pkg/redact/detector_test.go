package redact

import (
	"testing"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

func TestDetectorMasksIdentifiers(t *testing.T) {
	detector, err := NewDetector(DefaultRules())
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	facts := models.Fields{
		"nombre_paciente":    "Editar CC-1020304050",
		"antecedentes":       "Contacto ana@example.com o 3001234567",
		"lista_medicamentos": []string{"DTG", "3TC"},
		"edad":               41,
	}

	finding := detector.Detect(facts)
	if finding.Matches != 3 || len(finding.Types) != 3 {
		t.Fatalf("unexpected finding: %+v", finding)
	}

	sanitized := detector.Sanitize(facts)
	if sanitized.String("antecedentes") != "Contacto ***@*** o 3*********" {
		t.Fatalf("unexpected sanitized text %q", sanitized.String("antecedentes"))
	}
	if facts.String("antecedentes") == sanitized.String("antecedentes") {
		t.Fatal("input must not be modified")
	}
	if sanitized["edad"] != 41 {
		t.Fatalf("non-string values must pass through, got %v", sanitized["edad"])
	}
}

func TestNilDetectorIsNoop(t *testing.T) {
	var d *Detector
	facts := models.Fields{"a": "CC-1020304050"}
	if d.Sanitize(facts).String("a") != "CC-1020304050" {
		t.Fatal("nil detector must not mask")
	}
}
