package parser

import "testing"

const modalFixture = `
<div class="filament-modal-window">
  <h2>Vista de Encuentro</h2>
  <div class="filament-forms-section-component">
    <h3 class="pointer-events-none text-lg">Enfermedad Actual</h3>
    <div class="filament-forms-field-wrapper">
      <label><span>Fecha diagnóstico</span></label>
      <div class="filament-forms-placeholder-component">  2019-05-04 </div>
    </div>
    <div class="filament-forms-field-wrapper">
      <label>Estadio clínico (CDC)</label>
      <div class="filament-forms-placeholder-component"><p>A2</p>
         <p>  estable   </p></div>
    </div>
    <div class="filament-forms-field-wrapper">
      <label>Observaciones</label>
      <div class="filament-forms-placeholder-component">   </div>
    </div>
    <div class="filament-forms-field-wrapper">
      <label>Sin valor</label>
    </div>
  </div>
  <div class="filament-forms-section-component">
    <h3 class="pointer-events-none">Hábitos</h3>
    <div class="filament-forms-field-wrapper">
      <label>Hábitos alimentarios</label>
      <div class="filament-forms-placeholder-component">Dieta balanceada</div>
    </div>
    <div class="filament-forms-field-wrapper">
      <label>Hábitos</label>
      <div class="filament-forms-placeholder-component">Niega consumo</div>
    </div>
  </div>
  <div class="filament-forms-section-component">
    <div class="filament-forms-field-wrapper">
      <label>Huérfano</label>
      <div class="filament-forms-placeholder-component">sin título</div>
    </div>
  </div>
</div>`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	labels, err := NewLabelCanonicalizer(DefaultLabelRules())
	if err != nil {
		t.Fatalf("failed to build canonicalizer: %v", err)
	}
	return New(labels)
}

func TestParseSectionsReadsWellFormedSections(t *testing.T) {
	sections, err := newTestParser(t).ParseSections(modalFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %v", len(sections), sections)
	}

	current := sections["Enfermedad Actual"]
	if len(current) != 3 {
		t.Fatalf("expected 3 well-formed fields, got %v", current)
	}
	if current["Fecha de diagnóstico"] != "2019-05-04" {
		t.Fatalf("unexpected diagnosis date %q", current["Fecha de diagnóstico"])
	}
	if current["Estadio Clínico"] != "A2 estable" {
		t.Fatalf("expected collapsed whitespace, got %q", current["Estadio Clínico"])
	}
	if current["Observaciones"] != Unspecified {
		t.Fatalf("expected empty value sentinel, got %q", current["Observaciones"])
	}
	if _, ok := current["Sin valor"]; ok {
		t.Fatal("field without value element must be skipped")
	}

	habits := sections["Hábitos"]
	if habits["Hábitos Alimenticios"] != "Dieta balanceada" {
		t.Fatalf("unexpected habits section %v", habits)
	}
	if habits["Hábitos Toxicológicos"] != "Niega consumo" {
		t.Fatalf("unexpected habits section %v", habits)
	}
}

func TestParseSectionsToleratesGarbage(t *testing.T) {
	sections, err := newTestParser(t).ParseSections("<div><p>nothing here</div>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 0 {
		t.Fatalf("expected no sections, got %v", sections)
	}
}

func TestParseSectionsMatchesSectionClassOnAnyTag(t *testing.T) {
	markup := `
<div class="filament-modal-window">
  <section class="filament-forms-section-component mt-4">
    <h3 class="pointer-events-none">Antecedentes</h3>
    <div class="filament-forms-field-wrapper">
      <label>Alergias</label>
      <span class="filament-forms-placeholder-component">Penicilina</span>
    </div>
  </section>
</div>`
	sections, err := newTestParser(t).ParseSections(markup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sections["Antecedentes"]["Alergias"]; got != "Penicilina" {
		t.Fatalf("section rendered as <section> must be read, got %v", sections)
	}
}
