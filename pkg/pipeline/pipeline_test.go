package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/assembler"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/enrichment"
	"github.com/synaptica-ai/chart-extractor/pkg/keyfacts"
	"github.com/synaptica-ai/chart-extractor/pkg/navigator"
	"github.com/synaptica-ai/chart-extractor/pkg/storage"
)

type fakeExtractor struct {
	result *navigator.Result
	err    error
}

func (f *fakeExtractor) Run(ctx context.Context, ids []string) (*navigator.Result, error) {
	return f.result, f.err
}

type fakeEnricher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeEnricher) EnrichRecord(ctx context.Context, rec *models.PatientRecord) enrichment.Outcome {
	n := f.inFlight.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	f.inFlight.Add(-1)
	rec.EnrichedFields = models.Fields{keyfacts.ConceptoQF: "concepto " + rec.Identifier}
	return enrichment.Outcome{PatientID: rec.Identifier, Status: enrichment.StatusOK}
}

type captureRenderer struct {
	mu    sync.Mutex
	names []string
}

func (c *captureRenderer) Render(ctx context.Context, rec *models.PatientRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, rec.Identifier)
	return nil
}

type memoryStore struct {
	saved  []string
	failed []string
}

func (m *memoryStore) SaveRecord(ctx context.Context, runID string, rec *models.PatientRecord) error {
	m.saved = append(m.saved, rec.Identifier)
	return nil
}

func (m *memoryStore) SaveFailure(ctx context.Context, runID, patientID, message string) error {
	m.failed = append(m.failed, patientID)
	return nil
}

func record(id string) *models.PatientRecord {
	rec := models.NewPatientRecord(id, "Paciente "+id)
	rec.Plan.Prescriptions = []models.Prescription{
		{Date: "2024-01-01", Medication: "EFAVIRENZ"},
		{Date: "2024-03-01", Medication: "DOLUTEGRAVIR 50 MG"},
		{Date: "2024-03-01", Medication: "PRESERVATIVOS"},
	}
	return rec
}

func TestRunWritesPartialResultsAfterAbort(t *testing.T) {
	out := filepath.Join(t.TempDir(), "resultados.json")
	cfg := &config.Config{EnrichmentWorkers: 2, OutputPath: out}
	abort := errors.New("session lost")
	extractor := &fakeExtractor{
		result: &navigator.Result{
			Records:  []*models.PatientRecord{record("1"), record("2"), record("3")},
			Failures: []navigator.Failure{{PatientID: "4", Kind: "navigation_timeout", Message: "timeout"}},
		},
		err: abort,
	}
	enricher := &fakeEnricher{}
	renderer := &captureRenderer{}
	store := &memoryStore{}

	p := New(extractor, assembler.New(nil), enricher, cfg, WithRenderer(renderer), WithStore(store))
	report, err := p.Run(context.Background(), []string{"1", "2", "3", "4", "5"})
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if report.RunID == "" || report.Aborted == "" || report.Requested != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if peak := enricher.peak.Load(); peak > 2 {
		t.Fatalf("enrichment concurrency %d exceeds limit", peak)
	}

	written, err := storage.ReadJSON(out)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 records in artifact, got %d", len(written))
	}
	for i, rec := range written {
		if rec.Identifier != []string{"1", "2", "3"}[i] {
			t.Fatalf("artifact order changed: %s at %d", rec.Identifier, i)
		}
		if len(rec.Plan.Prescriptions) != 1 || rec.Plan.Prescriptions[0].Medication != "DTG" {
			t.Fatalf("prescriptions not post-processed: %+v", rec.Plan.Prescriptions)
		}
		if rec.KeyFacts[keyfacts.NombrePaciente] != "Paciente "+rec.Identifier {
			t.Fatalf("key facts missing: %+v", rec.KeyFacts)
		}
		if rec.EnrichedFields[keyfacts.ConceptoQF] != "concepto "+rec.Identifier {
			t.Fatalf("enrichment not attached to its own record: %+v", rec.EnrichedFields)
		}
	}

	if len(renderer.names) != 3 || len(store.saved) != 3 || len(store.failed) != 1 {
		t.Fatalf("downstream steps: rendered=%v saved=%v failed=%v", renderer.names, store.saved, store.failed)
	}
	if len(report.Outcomes) != 3 || report.Outcomes[1].PatientID != "2" {
		t.Fatalf("outcomes must follow record order: %+v", report.Outcomes)
	}
}

func TestRunEmptyBatchWritesEmptyArray(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	cfg := &config.Config{EnrichmentWorkers: 1, OutputPath: out}
	p := New(&fakeExtractor{}, assembler.New(nil), &fakeEnricher{}, cfg)

	report, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	written, err := storage.ReadJSON(out)
	if err != nil || len(written) != 0 || len(report.Records) != 0 {
		t.Fatalf("expected empty artifact, got %v %+v", err, written)
	}
}
