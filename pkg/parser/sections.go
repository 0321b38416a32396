// Package parser turns detail-surface markup from the clinical UI into
// section → label → value maps.
package parser

import (
	"fmt"

	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

// Unspecified is stored for fields whose rendered value is empty.
const Unspecified = "No especificado"

// Markup conventions of the source UI's detail surface.
type SectionClasses struct {
	Section    string
	Heading    string
	HeadingTag string
	Field      string
	Value      string
	LabelTag   string
}

func DefaultSectionClasses() SectionClasses {
	return SectionClasses{
		Section:    "filament-forms-section-component",
		Heading:    "pointer-events-none",
		HeadingTag: "h3",
		Field:      "filament-forms-field-wrapper",
		Value:      "filament-forms-placeholder-component",
		LabelTag:   "label",
	}
}

type Parser struct {
	classes SectionClasses
	labels  *LabelCanonicalizer
}

func New(labels *LabelCanonicalizer) *Parser {
	return &Parser{classes: DefaultSectionClasses(), labels: labels}
}

// ParseSections reads every section block of a detail surface. Blocks are matched
// by class whatever their tag. Sections without a heading and fields without both
// a label and a value element are skipped.
func (p *Parser) ParseSections(markup string) (models.Sections, error) {
	doc, err := Fragment(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing detail surface: %w", err)
	}

	out := models.Sections{}
	for _, section := range FindAll(doc, WithClass("", p.classes.Section)) {
		heading := FindFirst(section, WithClass(p.classes.HeadingTag, p.classes.Heading))
		if heading == nil {
			continue
		}
		title := Text(heading, "")
		fields := map[string]string{}

		for _, field := range FindAll(section, WithClass("", p.classes.Field)) {
			labelEl := FindFirst(field, Element(p.classes.LabelTag))
			valueEl := FindFirst(field, WithClass("", p.classes.Value))
			if labelEl == nil || valueEl == nil {
				continue
			}
			value := CollapseSpace(Text(valueEl, " "))
			if value == "" {
				value = Unspecified
			}
			fields[p.labels.Canonical(Text(labelEl, ""))] = value
		}
		out[title] = fields
	}
	return out, nil
}
