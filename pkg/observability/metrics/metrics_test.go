package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCountersAndExposition(t *testing.T) {
	before := Snapshot()

	PatientExtracted(3)
	PatientFailed()
	EnrichmentObserved("fallback")
	EnrichmentObserved("something-else")
	DocumentRendered(errors.New("boom"))

	after := Snapshot()
	deltas := map[string]int64{
		"patients_extracted":  1,
		"patients_failed":     1,
		"encounters_parsed":   3,
		"enrichment_fallback": 1,
		"enrichment_failed":   1,
		"documents_failed":    1,
		"documents_rendered":  0,
	}
	for name, want := range deltas {
		if got := after[name] - before[name]; got != want {
			t.Fatalf("%s moved by %d, want %d", name, got, want)
		}
	}

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	body := rec.Body.String()
	if !strings.Contains(body, `chart_extractor_enrichment_total{status="fallback"}`) {
		t.Fatalf("missing labelled counter:\n%s", body)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}
