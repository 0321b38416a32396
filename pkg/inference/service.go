// Package inference adapts the external text-generation services used for
// enrichment behind one interface.
package inference

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
)

// Request carries one prompt and its generation settings. Enrichment always
// sends Temperature 0 and TopP 1 so output is not sampled.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
}

// Service returns the raw generated text for a prompt.
type Service interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Deterministic returns a request with the non-sampling generation settings.
func Deterministic(model, prompt string, maxTokens int) Request {
	return Request{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: 0,
		TopP:        1,
		TopK:        50,
	}
}

// New picks the backend named by the configuration.
func New(ctx context.Context, cfg *config.Config) (Service, error) {
	switch cfg.InferenceBackend {
	case config.BackendOpenAI:
		return NewChatCompletions(ctx, cfg), nil
	case config.BackendBedrock, "":
		return NewBedrock(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown inference backend %q", cfg.InferenceBackend)
	}
}
