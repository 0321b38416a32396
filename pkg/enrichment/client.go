// Package enrichment asks the inference service for the narrative fields of a
// patient record and merges them over the derived key facts.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/inference"
	"github.com/synaptica-ai/chart-extractor/pkg/redact"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusCached   Status = "cached"
	StatusFallback Status = "fallback"
	StatusFailed   Status = "failed"
)

// Outcome describes how one record was enriched. Err wraps ErrParse or
// ErrInvocation when Status is fallback or failed.
type Outcome struct {
	PatientID string        `json:"patient_id"`
	Status    Status        `json:"status"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
	// Redacted counts identifier matches masked out of the prompt facts.
	Redacted int `json:"redacted,omitempty"`
}

type Client struct {
	service   inference.Service
	model     string
	maxTokens int
	maxChars  int
	timeout   time.Duration
	cache     Cache
	redactor  *redact.Detector
}

type Option func(*Client)

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRedactor masks identifiers in the facts embedded in the prompt.
func WithRedactor(d *redact.Detector) Option {
	return func(c *Client) { c.redactor = d }
}

func NewClient(service inference.Service, cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		service:   service,
		model:     cfg.ModelID(),
		maxTokens: cfg.InferenceMaxTokens,
		maxChars:  cfg.EnrichmentMaxChars,
		timeout:   cfg.InferenceTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enrich never fails outright: a parse failure yields FallbackPayload and an
// invocation failure yields FailurePayload, with the cause in the outcome.
func (c *Client) Enrich(ctx context.Context, facts models.Fields, modelID string) (models.Fields, Outcome) {
	start := time.Now()
	if modelID == "" {
		modelID = c.model
	}

	promptFacts := facts
	redacted := 0
	if c.redactor != nil {
		if found := c.redactor.Detect(facts); found.Matches > 0 {
			redacted = found.Matches
			logger.Log.WithFields(map[string]interface{}{
				"types":   found.Types,
				"matches": found.Matches,
			}).Debug("Masking identifiers in prompt facts")
		}
		promptFacts = c.redactor.Sanitize(facts)
	}
	prompt, err := BuildPrompt(promptFacts)
	if err != nil {
		return FailurePayload(), Outcome{Status: StatusFailed, Err: fmt.Errorf("%w: building prompt: %v", ErrInvocation, err), Duration: time.Since(start), Redacted: redacted}
	}

	key := CacheKey(modelID, prompt)
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			logger.Log.WithError(err).Warn("Enrichment cache lookup failed")
		} else if ok {
			return Truncate(cached, c.maxChars), Outcome{Status: StatusCached, Duration: time.Since(start), Redacted: redacted}
		}
	}

	// In-flight requests are not cancelled with the run; only the transport timeout ends them.
	callCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
		defer cancel()
	}
	text, err := c.service.Generate(callCtx, inference.Deterministic(modelID, prompt, c.maxTokens))
	if err != nil {
		return FailurePayload(), Outcome{Status: StatusFailed, Err: fmt.Errorf("%w: %v", ErrInvocation, err), Duration: time.Since(start), Redacted: redacted}
	}

	payload, err := ParsePayload(text)
	if err != nil {
		return Truncate(FallbackPayload(text, c.maxChars), c.maxChars), Outcome{Status: StatusFallback, Err: err, Duration: time.Since(start), Redacted: redacted}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, payload); err != nil {
			logger.Log.WithError(err).Warn("Enrichment cache store failed")
		}
	}
	return Truncate(payload, c.maxChars), Outcome{Status: StatusOK, Duration: time.Since(start), Redacted: redacted}
}

// EnrichRecord fills rec.EnrichedFields from rec.KeyFacts. The record is only
// written by the calling goroutine.
func (c *Client) EnrichRecord(ctx context.Context, rec *models.PatientRecord) Outcome {
	enriched, outcome := c.Enrich(ctx, rec.KeyFacts, c.model)
	outcome.PatientID = rec.Identifier
	rec.EnrichedFields = enriched

	entry := logger.ForPatient(rec.Identifier).WithFields(map[string]interface{}{
		"status":      outcome.Status,
		"duration_ms": outcome.Duration.Milliseconds(),
		"redacted":    outcome.Redacted,
	})
	switch {
	case errors.Is(outcome.Err, ErrInvocation):
		entry.WithError(outcome.Err).Error("Enrichment invocation failed")
		rec.Warn(outcome.Err.Error())
	case errors.Is(outcome.Err, ErrParse):
		entry.WithError(outcome.Err).Warn("Enrichment response unparseable, fallback payload used")
		rec.Warn(outcome.Err.Error())
	default:
		entry.Info("Enrichment completed")
	}
	return outcome
}
