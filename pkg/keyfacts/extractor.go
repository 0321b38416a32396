// Package keyfacts derives the compact, defaulted fact set sent to the
// inference service from an assembled patient record.
package keyfacts

import (
	"github.com/synaptica-ai/chart-extractor/pkg/common/datetime"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

const (
	sectionGeneral       = "Datos Generales"
	sectionCurrent       = "Enfermedad Actual"
	sectionHistory       = "Antecedentes Médicos"
	sectionOtherMeds     = "Otros Medicamentos"
	sectionAllergies     = "Alergias"
	sectionDiet          = "Hábitos Alimenticios"
	sectionToxic         = "Hábitos Toxicológicos"
	sectionHospital      = "Hospitalizaciones"
	sectionLabs          = "Últimos Paraclínicos"
	sectionPharmacologic = "Seguimiento Farmacoterapéutico"
)

// fieldSource copies one label of one section into a key, with a default.
type fieldSource struct {
	key     string
	section string
	label   string
	def     string
}

var medicalSources = []fieldSource{
	{PacienteSexo, sectionGeneral, "Sexo", ""},
	{PacienteEdad, sectionGeneral, "Edad", ""},
	{DiagnosticoPrincipal, sectionCurrent, "Diagnóstico", ""},
	{FechaDiagnostico, sectionCurrent, "Fecha de diagnóstico", ""},
	{EstadioClinico, sectionCurrent, "Estadio Clínico", ""},
	{AntecedentesPatologicos, sectionHistory, "Patológicos", ""},
	{AntecedentesActuales, sectionHistory, "Actuales", ""},
	{OtrosMedicamentos, sectionOtherMeds, "Descripción", "No refiere"},
	{Alergias, sectionAllergies, "Descripción", "No refiere"},
	{HabitosAlimenticios, sectionDiet, "Descripción", "Normales"},
	{HabitosToxicos, sectionToxic, "Descripción", "Niega"},
	{HospitalizacionesRecientes, sectionHospital, "Recientes", "No refiere"},
	{FechaParaclinico, sectionLabs, "Fecha", ""},
	{CVParaclinico, sectionLabs, "CV", ""},
	{CD4Paraclinico, sectionLabs, "CD4+", ""},
}

var pharmacologicalSources = []fieldSource{
	{ProfilaxisAntibiotica, sectionPharmacologic, "Profilaxis Antibiótica", "No refiere"},
	{MetasTerapeuticas, sectionPharmacologic, "Metas Terapéuticas", ""},
	{MedicamentoNecesario, sectionPharmacologic, "¿Medicamento NECESARIO?", ""},
	{MedicamentoEfectivo, sectionPharmacologic, "¿Medicamento EFECTIVO?", ""},
	{MedicamentoSeguro, sectionPharmacologic, "¿Medicamento SEGURO?", ""},
	{Interacciones, sectionPharmacologic, "Interacciones", "Ninguna"},
	{Genotipo, sectionPharmacologic, "Genotipo", "N/A"},
	{FechaDispensacion, sectionPharmacologic, "Fecha", ""},
	{ModalidadDispensacion, sectionPharmacologic, "Modalidad", ""},
	{AdherenciaTest, sectionPharmacologic, "Resultado de Adherencia Cualitativo", ""},
	{ToleranciaTest, sectionPharmacologic, "Tolerancia", ""},
}

// Defaults returns a fresh map holding every v1 key with its default value.
func Defaults() models.Fields {
	out := models.Fields{}
	for _, name := range FieldNames {
		out[name] = ""
	}
	for _, src := range medicalSources {
		out[src.key] = src.def
	}
	for _, src := range pharmacologicalSources {
		out[src.key] = src.def
	}
	out[ListaMedicamentos] = []string{}
	out[SugerenciaHorarios] = []Schedule{}
	return out
}

// Extract never fails; missing encounters or sections leave the defaults in place.
func Extract(rec *models.PatientRecord) models.Fields {
	facts := Defaults()
	facts[NombrePaciente] = rec.DisplayName

	if enc, ok := MostRecent(rec.Encounters[models.KindMedical]); ok {
		copyFields(facts, enc.Sections, medicalSources)
	}
	if enc, ok := MostRecent(rec.Encounters[models.KindPharmacological]); ok {
		copyFields(facts, enc.Sections, pharmacologicalSources)
	}

	meds := make([]string, 0, len(rec.Plan.Prescriptions))
	for _, p := range rec.Plan.Prescriptions {
		meds = append(meds, p.Medication)
	}
	facts[ListaMedicamentos] = meds
	return facts
}

// MostRecent returns the encounter with the greatest date-time. Equal date-times
// resolve to the one discovered first.
func MostRecent(encounters []models.Encounter) (models.Encounter, bool) {
	dates := make([]string, len(encounters))
	for i, e := range encounters {
		dates[i] = e.DateTime
	}
	idx := datetime.Latest(dates)
	if idx < 0 {
		return models.Encounter{}, false
	}
	return encounters[idx], true
}

func copyFields(dst models.Fields, sections models.Sections, sources []fieldSource) {
	for _, src := range sources {
		dst[src.key] = sections.Get(src.section, src.label, src.def)
	}
}
