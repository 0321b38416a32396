// Package assembler accumulates the fragments read by the navigator into a
// canonical patient record and post-processes it before key-fact derivation.
package assembler

import (
	"github.com/synaptica-ai/chart-extractor/pkg/common/datetime"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/terminology"
)

type Assembler struct {
	catalog *terminology.Catalog
}

func New(catalog *terminology.Catalog) *Assembler {
	if catalog == nil {
		catalog = terminology.DefaultCatalog()
	}
	return &Assembler{catalog: catalog}
}

// AppendEncounter stores a parsed detail surface under kind in discovery order.
func (a *Assembler) AppendEncounter(rec *models.PatientRecord, kind models.ProfessionalKind, row HistoryRow, sections models.Sections) {
	if sections == nil {
		sections = models.Sections{}
	}
	rec.Encounters[kind] = append(rec.Encounters[kind], models.Encounter{
		Activity:     row.Activity,
		SubActivity:  row.SubActivity,
		Professional: row.Professional,
		DateTime:     row.DateTime,
		Sections:     sections,
	})
}

// SetPlan appends the orders and prescriptions read from the plan tab.
func (a *Assembler) SetPlan(rec *models.PatientRecord, plan models.Plan) {
	rec.Plan.Orders = append(rec.Plan.Orders, plan.Orders...)
	rec.Plan.Prescriptions = append(rec.Plan.Prescriptions, plan.Prescriptions...)
}

// PostProcess keeps only the prescriptions of the latest date, drops excluded
// consumables and replaces medication names with their abbreviation.
func (a *Assembler) PostProcess(rec *models.PatientRecord) {
	rec.Plan.Prescriptions = a.FilterPrescriptions(rec.Plan.Prescriptions)
	for i := range rec.Plan.Prescriptions {
		if abbr, ok := a.catalog.Abbreviate(rec.Plan.Prescriptions[i].Medication); ok {
			rec.Plan.Prescriptions[i].Medication = abbr
		}
	}
	logger.ForPatient(rec.Identifier).
		WithField("prescriptions", len(rec.Plan.Prescriptions)).
		Debug("Prescriptions post-processed")
}

// FilterPrescriptions returns, in their original order, the prescriptions sharing
// the latest date, minus excluded consumables.
func (a *Assembler) FilterPrescriptions(in []models.Prescription) []models.Prescription {
	out := []models.Prescription{}
	if len(in) == 0 {
		return out
	}
	dates := make([]string, len(in))
	for i, p := range in {
		dates[i] = p.Date
	}
	latest := dates[datetime.Latest(dates)]
	for _, p := range in {
		if datetime.Compare(p.Date, latest) != 0 {
			continue
		}
		if a.catalog.IsExcluded(p.Medication) {
			continue
		}
		out = append(out, p)
	}
	return out
}
