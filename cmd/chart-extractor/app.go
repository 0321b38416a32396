package main

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/chart-extractor/pkg/assembler"
	"github.com/synaptica-ai/chart-extractor/pkg/browser"
	"github.com/synaptica-ai/chart-extractor/pkg/classifier"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/database"
	"github.com/synaptica-ai/chart-extractor/pkg/common/kafka"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/enrichment"
	"github.com/synaptica-ai/chart-extractor/pkg/inference"
	"github.com/synaptica-ai/chart-extractor/pkg/navigator"
	"github.com/synaptica-ai/chart-extractor/pkg/parser"
	"github.com/synaptica-ai/chart-extractor/pkg/pipeline"
	"github.com/synaptica-ai/chart-extractor/pkg/redact"
	"github.com/synaptica-ai/chart-extractor/pkg/render"
	"github.com/synaptica-ai/chart-extractor/pkg/storage"
	"github.com/synaptica-ai/chart-extractor/pkg/terminology"
)

// app owns every resource a run opens.
type app struct {
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Log.WithError(err).Warn("Shutdown step failed")
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	labelRules, err := parser.LoadLabelRules(cfg.LabelRulesPath)
	if err != nil {
		return fail(fmt.Errorf("label rules: %w", err))
	}
	labels, err := parser.NewLabelCanonicalizer(labelRules)
	if err != nil {
		return fail(fmt.Errorf("label rules: %w", err))
	}
	classifierRules, err := classifier.LoadRules(cfg.ClassifierRulesPath)
	if err != nil {
		return fail(fmt.Errorf("classifier rules: %w", err))
	}
	cls, err := classifier.New(classifierRules)
	if err != nil {
		return fail(fmt.Errorf("classifier rules: %w", err))
	}
	catalog, err := terminology.Load(cfg.MedicationCatalogPath)
	if err != nil {
		return fail(fmt.Errorf("medication catalog: %w", err))
	}
	asm := assembler.New(catalog)

	service, err := inference.New(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	enricher, err := newEnricher(cfg, service, a)
	if err != nil {
		return fail(err)
	}

	renderer, err := newRenderer(cfg, a)
	if err != nil {
		return fail(err)
	}
	opts := []pipeline.Option{pipeline.WithRenderer(renderer)}

	if cfg.StoreEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			return fail(fmt.Errorf("record store: %w", err))
		}
		a.closers = append(a.closers, database.ClosePostgres)
		store := storage.NewRecordStore(db)
		if err := store.AutoMigrate(); err != nil {
			return fail(fmt.Errorf("record store: %w", err))
		}
		opts = append(opts, pipeline.WithStore(store))
	}

	chrome, err := browser.Start(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, chrome.Close)

	nav := navigator.New(chrome, cfg, parser.New(labels), cls, asm)
	a.pipeline = pipeline.New(nav, asm, enricher, cfg, opts...)
	return a, nil
}

func newEnricher(cfg *config.Config, service inference.Service, a *app) (*enrichment.Client, error) {
	var opts []enrichment.Option
	if cfg.EnrichmentCacheTTL > 0 {
		client, err := database.GetRedis(cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("Enrichment cache disabled")
		} else {
			a.closers = append(a.closers, database.CloseRedis)
			opts = append(opts, enrichment.WithCache(enrichment.NewRedisCache(client, cfg.EnrichmentCacheTTL)))
		}
	}
	if cfg.RedactPrompts {
		rules, err := redact.LoadRules(cfg.RedactRulesPath)
		if err != nil {
			return nil, fmt.Errorf("redaction rules: %w", err)
		}
		detector, err := redact.NewDetector(rules)
		if err != nil {
			return nil, fmt.Errorf("redaction rules: %w", err)
		}
		opts = append(opts, enrichment.WithRedactor(detector))
	}
	return enrichment.NewClient(service, cfg, opts...), nil
}

func newRenderer(cfg *config.Config, a *app) (render.Renderer, error) {
	switch cfg.RenderMode {
	case config.RenderKafka:
		producer := kafka.NewProducer(cfg, cfg.KafkaRenderTopic)
		a.closers = append(a.closers, producer.Close)
		return render.NewQueueRenderer(producer), nil
	case config.RenderNone:
		return render.NopRenderer{}, nil
	default:
		return render.NewTemplateRenderer(cfg.ReportTemplate, cfg.ReportDir)
	}
}
