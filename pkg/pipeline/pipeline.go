// Package pipeline runs one batch end to end: navigation, post-processing,
// key-fact derivation, concurrent enrichment, the JSON artifact, the optional
// record store and the document step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/chart-extractor/pkg/assembler"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/enrichment"
	"github.com/synaptica-ai/chart-extractor/pkg/keyfacts"
	"github.com/synaptica-ai/chart-extractor/pkg/navigator"
	"github.com/synaptica-ai/chart-extractor/pkg/observability/metrics"
	"github.com/synaptica-ai/chart-extractor/pkg/render"
	"github.com/synaptica-ai/chart-extractor/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// Extractor is satisfied by *navigator.Navigator.
type Extractor interface {
	Run(ctx context.Context, ids []string) (*navigator.Result, error)
}

// Enricher is satisfied by *enrichment.Client.
type Enricher interface {
	EnrichRecord(ctx context.Context, rec *models.PatientRecord) enrichment.Outcome
}

// Store is satisfied by *storage.RecordStore.
type Store interface {
	SaveRecord(ctx context.Context, runID string, rec *models.PatientRecord) error
	SaveFailure(ctx context.Context, runID, patientID, message string) error
}

// Report summarises one run.
type Report struct {
	RunID      string                  `json:"run_id"`
	Requested  int                     `json:"requested"`
	Records    []*models.PatientRecord `json:"-"`
	Failures   []navigator.Failure     `json:"failures"`
	Outcomes   []enrichment.Outcome    `json:"outcomes"`
	Aborted    string                  `json:"aborted,omitempty"`
	OutputPath string                  `json:"output_path"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

type Pipeline struct {
	extractor  Extractor
	assembler  *assembler.Assembler
	enricher   Enricher
	renderer   render.Renderer
	store      Store
	workers    int
	outputPath string
	now        func() time.Time
}

type Option func(*Pipeline)

func WithRenderer(r render.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store = s }
}

func New(extractor Extractor, a *assembler.Assembler, enricher Enricher, cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		assembler:  a,
		enricher:   enricher,
		renderer:   render.NopRenderer{},
		workers:    cfg.EnrichmentWorkers,
		outputPath: cfg.OutputPath,
		now:        time.Now,
	}
	if p.workers < 1 {
		p.workers = 1
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes ids in order. Whatever was extracted is enriched and written
// even when navigation aborts; the abort error is returned alongside the report.
func (p *Pipeline) Run(ctx context.Context, ids []string) (*Report, error) {
	report := &Report{
		RunID:      uuid.New().String(),
		Requested:  len(ids),
		OutputPath: p.outputPath,
		StartedAt:  p.now(),
	}
	log := logger.ForRun(report.RunID)
	log.WithField("patients", len(ids)).Info("Run started")

	res, navErr := p.extractor.Run(ctx, ids)
	if res == nil {
		res = &navigator.Result{}
	}
	if navErr != nil {
		report.Aborted = navErr.Error()
		log.WithError(navErr).WithField("extracted", len(res.Records)).Error("Navigation aborted")
	}
	report.Records = res.Records
	report.Failures = res.Failures
	for range res.Failures {
		metrics.PatientFailed()
	}

	for _, rec := range res.Records {
		p.assembler.PostProcess(rec)
		rec.KeyFacts = keyfacts.Extract(rec)
		metrics.PatientExtracted(encounterCount(rec))
	}

	report.Outcomes = p.enrich(ctx, res.Records)

	var errs []error
	if navErr != nil {
		errs = append(errs, navErr)
	}
	if err := storage.WriteJSON(p.outputPath, res.Records); err != nil {
		errs = append(errs, fmt.Errorf("writing %s: %w", p.outputPath, err))
	} else {
		log.WithField("path", p.outputPath).WithField("records", len(res.Records)).Info("Results written")
	}

	// Persistence and documents should not be cut short by an interrupt.
	after := context.WithoutCancel(ctx)
	p.persist(after, report.RunID, res)
	p.render(after, res.Records)

	report.FinishedAt = p.now()
	log.WithFields(map[string]interface{}{
		"extracted":   len(res.Records),
		"failed":      len(res.Failures),
		"duration_ms": report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}).Info("Run finished")
	return report, errors.Join(errs...)
}

// enrich runs at most p.workers inference calls at once. Each worker writes only
// to its own record and outcome slot.
func (p *Pipeline) enrich(ctx context.Context, records []*models.PatientRecord) []enrichment.Outcome {
	outcomes := make([]enrichment.Outcome, len(records))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			outcomes[i] = p.enricher.EnrichRecord(ctx, rec)
			metrics.EnrichmentObserved(string(outcomes[i].Status))
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (p *Pipeline) persist(ctx context.Context, runID string, res *navigator.Result) {
	if p.store == nil {
		return
	}
	for _, rec := range res.Records {
		if err := p.store.SaveRecord(ctx, runID, rec); err != nil {
			logger.ForPatient(rec.Identifier).WithError(err).Warn("Failed to store record")
		}
	}
	for _, f := range res.Failures {
		if err := p.store.SaveFailure(ctx, runID, f.PatientID, f.Message); err != nil {
			logger.ForPatient(f.PatientID).WithError(err).Warn("Failed to store failure")
		}
	}
}

func (p *Pipeline) render(ctx context.Context, records []*models.PatientRecord) {
	for _, rec := range records {
		err := p.renderer.Render(ctx, rec)
		metrics.DocumentRendered(err)
		if err != nil {
			logger.ForPatient(rec.Identifier).WithError(err).Error("Document step failed")
		}
	}
}

func encounterCount(rec *models.PatientRecord) int {
	n := 0
	for _, encounters := range rec.Encounters {
		n += len(encounters)
	}
	return n
}
