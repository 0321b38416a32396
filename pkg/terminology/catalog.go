package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Medication maps a clinical substance name to its short abbreviation.
type Medication struct {
	Substance    string `yaml:"substance" json:"substance"`
	Abbreviation string `yaml:"abbreviation" json:"abbreviation"`
}

type Catalog struct {
	Medications []Medication `yaml:"medications" json:"medications"`
	// Excluded names are non-medication consumables dropped from prescriptions.
	Excluded []string `yaml:"excluded" json:"excluded"`

	bySubstance map[string]string
	byLength    []Medication
	excluded    map[string]struct{}
}

func Load(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return nil, err
	}
	if len(cat.Medications) == 0 {
		return nil, fmt.Errorf("medication catalog empty")
	}
	cat.index()
	return &cat, nil
}

func DefaultCatalog() *Catalog {
	cat := &Catalog{
		Medications: []Medication{
			{Substance: "BICTEGRAVIR/EMTRICITABINA/TENOFOVIR ALAFENAMIDA", Abbreviation: "BIC/FTC/TAF"},
			{Substance: "EMTRICITABINA/TENOFOVIR ALAFENAMIDA", Abbreviation: "FTC/TAF"},
			{Substance: "EMTRICITABINA/TENOFOVIR DISOPROXILO", Abbreviation: "FTC/TDF"},
			{Substance: "ABACAVIR/LAMIVUDINA", Abbreviation: "ABC/3TC"},
			{Substance: "LAMIVUDINA/ZIDOVUDINA", Abbreviation: "3TC/AZT"},
			{Substance: "LOPINAVIR/RITONAVIR", Abbreviation: "LPV/r"},
			{Substance: "TRIMETOPRIM/SULFAMETOXAZOL", Abbreviation: "TMP/SMX"},
			{Substance: "TENOFOVIR DISOPROXILO", Abbreviation: "TDF"},
			{Substance: "DOLUTEGRAVIR", Abbreviation: "DTG"},
			{Substance: "RALTEGRAVIR", Abbreviation: "RAL"},
			{Substance: "EFAVIRENZ", Abbreviation: "EFV"},
			{Substance: "RILPIVIRINA", Abbreviation: "RPV"},
			{Substance: "NEVIRAPINA", Abbreviation: "NVP"},
			{Substance: "DARUNAVIR", Abbreviation: "DRV"},
			{Substance: "ATAZANAVIR", Abbreviation: "ATV"},
			{Substance: "RITONAVIR", Abbreviation: "RTV"},
			{Substance: "LAMIVUDINA", Abbreviation: "3TC"},
			{Substance: "ZIDOVUDINA", Abbreviation: "AZT"},
			{Substance: "ABACAVIR", Abbreviation: "ABC"},
		},
		Excluded: []string{"PRESERVATIVOS"},
	}
	cat.index()
	return cat
}

func (c *Catalog) index() {
	c.bySubstance = make(map[string]string, len(c.Medications))
	for _, m := range c.Medications {
		c.bySubstance[key(m.Substance)] = m.Abbreviation
	}
	c.byLength = append([]Medication(nil), c.Medications...)
	// longest substance first so combinations win over their components
	sort.SliceStable(c.byLength, func(i, j int) bool {
		return len(key(c.byLength[i].Substance)) > len(key(c.byLength[j].Substance))
	})
	c.excluded = make(map[string]struct{}, len(c.Excluded))
	for _, e := range c.Excluded {
		c.excluded[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
}

// Abbreviate returns the abbreviation for name: exact substance match first, then the
// longest substance contained in name. Unmapped names are returned unchanged.
func (c *Catalog) Abbreviate(name string) (string, bool) {
	if c.bySubstance == nil {
		c.index()
	}
	k := key(name)
	if k == "" {
		return name, false
	}
	if abbr, ok := c.bySubstance[k]; ok {
		return abbr, true
	}
	for _, m := range c.byLength {
		if sub := key(m.Substance); sub != "" && strings.Contains(k, sub) {
			return m.Abbreviation, true
		}
	}
	return name, false
}

// IsExcluded reports an exact, case-insensitive match against the excluded consumables.
func (c *Catalog) IsExcluded(name string) bool {
	if c.excluded == nil {
		c.index()
	}
	_, ok := c.excluded[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// key upper-cases, strips accents and collapses whitespace.
func key(s string) string {
	decomposed := norm.NFD.String(strings.ToUpper(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
