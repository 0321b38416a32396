package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	patientsExtracted  atomic.Int64
	patientsFailed     atomic.Int64
	encountersParsed   atomic.Int64
	enrichmentOK       atomic.Int64
	enrichmentCached   atomic.Int64
	enrichmentFallback atomic.Int64
	enrichmentFailed   atomic.Int64
	documentsRendered  atomic.Int64
	documentsFailed    atomic.Int64
)

func PatientExtracted(encounters int) {
	patientsExtracted.Add(1)
	encountersParsed.Add(int64(encounters))
}

func PatientFailed() {
	patientsFailed.Add(1)
}

// EnrichmentObserved counts one enrichment outcome by status name.
func EnrichmentObserved(status string) {
	switch status {
	case "ok":
		enrichmentOK.Add(1)
	case "cached":
		enrichmentCached.Add(1)
	case "fallback":
		enrichmentFallback.Add(1)
	default:
		enrichmentFailed.Add(1)
	}
}

func DocumentRendered(err error) {
	if err != nil {
		documentsFailed.Add(1)
		return
	}
	documentsRendered.Add(1)
}

// Snapshot returns the current counters keyed by metric name.
func Snapshot() map[string]int64 {
	return map[string]int64{
		"patients_extracted":  patientsExtracted.Load(),
		"patients_failed":     patientsFailed.Load(),
		"encounters_parsed":   encountersParsed.Load(),
		"enrichment_ok":       enrichmentOK.Load(),
		"enrichment_cached":   enrichmentCached.Load(),
		"enrichment_fallback": enrichmentFallback.Load(),
		"enrichment_failed":   enrichmentFailed.Load(),
		"documents_rendered":  documentsRendered.Load(),
		"documents_failed":    documentsFailed.Load(),
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP chart_extractor_patients_extracted_total Patients whose chart was extracted.\n")
	fmt.Fprintf(w, "# TYPE chart_extractor_patients_extracted_total counter\n")
	fmt.Fprintf(w, "chart_extractor_patients_extracted_total %d\n", patientsExtracted.Load())

	fmt.Fprintf(w, "# HELP chart_extractor_patients_failed_total Patients skipped after a navigation failure.\n")
	fmt.Fprintf(w, "# TYPE chart_extractor_patients_failed_total counter\n")
	fmt.Fprintf(w, "chart_extractor_patients_failed_total %d\n", patientsFailed.Load())

	fmt.Fprintf(w, "# HELP chart_extractor_encounters_parsed_total Encounter detail surfaces parsed.\n")
	fmt.Fprintf(w, "# TYPE chart_extractor_encounters_parsed_total counter\n")
	fmt.Fprintf(w, "chart_extractor_encounters_parsed_total %d\n", encountersParsed.Load())

	fmt.Fprintf(w, "# HELP chart_extractor_enrichment_total Enrichment outcomes by status.\n")
	fmt.Fprintf(w, "# TYPE chart_extractor_enrichment_total counter\n")
	fmt.Fprintf(w, "chart_extractor_enrichment_total{status=\"ok\"} %d\n", enrichmentOK.Load())
	fmt.Fprintf(w, "chart_extractor_enrichment_total{status=\"cached\"} %d\n", enrichmentCached.Load())
	fmt.Fprintf(w, "chart_extractor_enrichment_total{status=\"fallback\"} %d\n", enrichmentFallback.Load())
	fmt.Fprintf(w, "chart_extractor_enrichment_total{status=\"failed\"} %d\n", enrichmentFailed.Load())

	fmt.Fprintf(w, "# HELP chart_extractor_documents_total Rendered patient documents by result.\n")
	fmt.Fprintf(w, "# TYPE chart_extractor_documents_total counter\n")
	fmt.Fprintf(w, "chart_extractor_documents_total{result=\"ok\"} %d\n", documentsRendered.Load())
	fmt.Fprintf(w, "chart_extractor_documents_total{result=\"error\"} %d\n", documentsFailed.Load())
}
