package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
)

func TestChatCompletionsSendsDeterministicRequest(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"concepto_qf\":\"ok\"}"}}]}`))
	}))
	defer server.Close()

	cfg := &config.Config{LLMBaseURL: server.URL + "/v1/", LLMAPIKey: "secret", InferenceTimeout: 5 * time.Second}
	svc := NewChatCompletions(context.Background(), cfg)

	text, err := svc.Generate(context.Background(), Deterministic("local-model", "hola", 4000))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"concepto_qf":"ok"}` {
		t.Fatalf("unexpected text %q", text)
	}
	if got["temperature"].(float64) != 0 || got["top_p"].(float64) != 1 || got["model"] != "local-model" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestChatCompletionsReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := &config.Config{LLMBaseURL: server.URL, InferenceTimeout: 5 * time.Second, InferenceRetries: 2}
	if _, err := NewChatCompletions(context.Background(), cfg).Generate(context.Background(), Deterministic("m", "p", 10)); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockReadsFirstOutput(t *testing.T) {
	fake := &fakeInvoker{body: `{"outputs":[{"text":"respuesta","stop_reason":"stop"}]}`}
	b := &Bedrock{client: fake, attempts: 1}

	text, err := b.Generate(context.Background(), Deterministic("mistral.mistral-large", "prompt", 4000))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "respuesta" {
		t.Fatalf("unexpected text %q", text)
	}

	var sent mistralRequest
	if err := json.Unmarshal(fake.input.Body, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sent.MaxTokens != 4000 || sent.Temperature != 0 || sent.TopK != 50 || *fake.input.ModelId != "mistral.mistral-large" {
		t.Fatalf("unexpected request %+v", sent)
	}
}

func TestBedrockRejectsEmptyOutputs(t *testing.T) {
	b := &Bedrock{client: &fakeInvoker{body: `{"outputs":[]}`}, attempts: 1}
	if _, err := b.Generate(context.Background(), Deterministic("m", "p", 1)); err == nil {
		t.Fatal("expected error for empty outputs")
	}
}
