package terminology

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAbbreviateExactMatch(t *testing.T) {
	cat := DefaultCatalog()
	abbr, ok := cat.Abbreviate("dolutegravir")
	if !ok || abbr != "DTG" {
		t.Fatalf("expected DTG, got %q (%v)", abbr, ok)
	}
}

func TestAbbreviateSubstringPrefersCombination(t *testing.T) {
	cat := DefaultCatalog()
	abbr, ok := cat.Abbreviate("LOPINAVIR/RITONAVIR 200 MG/50 MG TABLETA RECUBIERTA")
	if !ok || abbr != "LPV/r" {
		t.Fatalf("expected LPV/r, got %q (%v)", abbr, ok)
	}
	abbr, ok = cat.Abbreviate("Bictegravir/Emtricitabina/Tenofovir Alafenamida 50/200/25 mg")
	if !ok || abbr != "BIC/FTC/TAF" {
		t.Fatalf("expected BIC/FTC/TAF, got %q (%v)", abbr, ok)
	}
}

func TestAbbreviateUnknownPassesThrough(t *testing.T) {
	cat := DefaultCatalog()
	name := "ACETAMINOFEN 500 MG"
	abbr, ok := cat.Abbreviate(name)
	if ok || abbr != name {
		t.Fatalf("expected passthrough, got %q (%v)", abbr, ok)
	}
}

func TestIsExcludedIsExactAndCaseInsensitive(t *testing.T) {
	cat := DefaultCatalog()
	if !cat.IsExcluded(" preservativos ") {
		t.Fatal("expected consumable to be excluded")
	}
	if cat.IsExcluded("PRESERVATIVOS DE LATEX") {
		t.Fatal("exclusion must not match on substrings")
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meds.yaml")
	content := []byte("medications:\n  - substance: Cabotegravir\n    abbreviation: CAB\nexcluded:\n  - Jeringa\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if abbr, _ := cat.Abbreviate("CABOTEGRAVIR 600MG/3ML"); abbr != "CAB" {
		t.Fatalf("expected CAB, got %q", abbr)
	}
	if !cat.IsExcluded("JERINGA") {
		t.Fatal("expected JERINGA excluded")
	}
}
