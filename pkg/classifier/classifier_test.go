package classifier

import (
	"testing"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

func TestClassifyDefaultRules(t *testing.T) {
	c, err := New(DefaultRules())
	if err != nil {
		t.Fatalf("failed to build classifier: %v", err)
	}

	cases := []struct {
		in   string
		want models.ProfessionalKind
	}{
		{"Consulta de control por medico experto", models.KindMedical},
		{"SEGUIMIENTO FARMACOTERAPÉUTICO", models.KindPharmacological},
		{"seguimiento farmacoterapéutico", models.KindPharmacological},
		{"Atención por Quimico Farmaceutico", models.KindPharmacological},
		{"Quimico y medico", models.KindMedical},
		{"Psicología", models.KindUnclassified},
		{"", models.KindUnclassified},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.in); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestClassifyDecomposedAccent(t *testing.T) {
	c, _ := New(DefaultRules())
	if got := c.Classify("SEGUIMIENTO FARMACOTERAPE\u0301UTICO"); got != models.KindPharmacological {
		t.Fatalf("expected pharmacological for NFD text, got %s", got)
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(RulesConfig{Rules: []Rule{{Kind: "nursing", Contains: []string{"ENFERMERIA"}}}})
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
