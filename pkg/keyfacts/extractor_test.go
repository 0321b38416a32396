package keyfacts

import (
	"testing"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

func medical(date, stage string) models.Encounter {
	return models.Encounter{
		SubActivity: "CONSULTA MEDICO",
		DateTime:    date,
		Sections: models.Sections{
			"Enfermedad Actual": {"Estadio Clínico": stage},
			"Datos Generales":   {"Sexo": "F", "Edad": "41"},
		},
	}
}

func TestExtractUsesMostRecentEncounter(t *testing.T) {
	rec := models.NewPatientRecord("123", "Ana")
	rec.Encounters[models.KindMedical] = []models.Encounter{
		medical("2024-01-10", "A1"),
		medical("2024-03-01", "C3"),
		medical("2024-02-15", "B2"),
	}

	facts := Extract(rec)
	if got := facts.String(EstadioClinico); got != "C3" {
		t.Fatalf("expected fields from 2024-03-01 encounter, got %q", got)
	}
	if facts.String(PacienteSexo) != "F" || facts.String(NombrePaciente) != "Ana" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestMostRecentTieKeepsFirstDiscovered(t *testing.T) {
	enc, ok := MostRecent([]models.Encounter{
		medical("2024-03-01 10:00", "first"),
		medical("2024-03-01 10:00", "second"),
	})
	if !ok || enc.Sections.Get("Enfermedad Actual", "Estadio Clínico", "") != "first" {
		t.Fatalf("expected first discovered encounter, got %+v", enc)
	}
}

func TestExtractDefaultsWhenNothingRecorded(t *testing.T) {
	facts := Extract(models.NewPatientRecord("123", "Ana"))
	for _, name := range FieldNames {
		if _, ok := facts[name]; !ok {
			t.Fatalf("missing key %s", name)
		}
	}
	cases := map[string]string{
		Alergias:              "No refiere",
		HabitosAlimenticios:   "Normales",
		HabitosToxicos:        "Niega",
		Interacciones:         "Ninguna",
		Genotipo:              "N/A",
		ProfilaxisAntibiotica: "No refiere",
		FechaDiagnostico:      "",
	}
	for key, want := range cases {
		if got := facts.String(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
	if meds, ok := facts[ListaMedicamentos].([]string); !ok || len(meds) != 0 {
		t.Fatalf("expected empty medication list, got %#v", facts[ListaMedicamentos])
	}
}

func TestExtractPharmacologicalAndMedications(t *testing.T) {
	rec := models.NewPatientRecord("123", "Ana")
	rec.Encounters[models.KindPharmacological] = []models.Encounter{{
		DateTime: "2024-02-01",
		Sections: models.Sections{"Seguimiento Farmacoterapéutico": {
			"Genotipo":                            "No especificado",
			"Resultado de Adherencia Cualitativo": "Adherente",
		}},
	}}
	rec.Plan.Prescriptions = []models.Prescription{{Medication: "DTG"}, {Medication: "3TC"}}

	facts := Extract(rec)
	if facts.String(AdherenciaTest) != "Adherente" || facts.String(Genotipo) != "No especificado" {
		t.Fatalf("unexpected pharmacological facts: %+v", facts)
	}
	if facts.String(Interacciones) != "Ninguna" {
		t.Fatalf("expected default interacciones, got %q", facts.String(Interacciones))
	}
	meds := facts[ListaMedicamentos].([]string)
	if len(meds) != 2 || meds[0] != "DTG" || meds[1] != "3TC" {
		t.Fatalf("unexpected medication list %v", meds)
	}
}
