package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("FASTCLINICA_URL", "https://clinic.example.com/")
	t.Setenv("FASTCLINICA_USER", "qf@example.com")
	t.Setenv("FASTCLINICA_PASS", "secret")
	t.Setenv("AWS_BEDROCK_MODEL_ID", "mistral.mixtral-8x7b-instruct-v0:1")
	t.Setenv("STEP_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg := Load()
	if cfg.BaseURL != "https://clinic.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.StepTimeout != 5*time.Second {
		t.Fatalf("expected step timeout 5s, got %v", cfg.StepTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.ModelID() != "mistral.mixtral-8x7b-instruct-v0:1" {
		t.Fatalf("unexpected model id %q", cfg.ModelID())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{InferenceBackend: BackendBedrock, RenderMode: RenderFile, PatientAttempts: 1, EnrichmentWorkers: 1}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, key := range []string{"FASTCLINICA_URL", "FASTCLINICA_USER", "FASTCLINICA_PASS", "AWS_BEDROCK_MODEL_ID"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got %v", key, err)
		}
	}
}

func TestValidateOpenAIBackendNeedsLocalModel(t *testing.T) {
	cfg := &Config{
		BaseURL: "https://x", User: "u", Password: "p",
		InferenceBackend: BackendOpenAI, LLMBaseURL: "http://localhost:8000/v1",
		RenderMode: RenderNone, PatientAttempts: 1, EnrichmentWorkers: 2,
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "LOCAL_MODEL_ID") {
		t.Fatalf("expected LOCAL_MODEL_ID error, got %v", err)
	}
	cfg.LocalModelID = "Qwen/Qwen2.5-7B-Instruct"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ModelID() != "Qwen/Qwen2.5-7B-Instruct" {
		t.Fatalf("expected local model id, got %q", cfg.ModelID())
	}
}
