package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/httpclient"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ChatCompletions calls an OpenAI-compatible /chat/completions endpoint, such as a
// locally hosted model server.
type ChatCompletions struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	attempts int
}

// NewChatCompletions authenticates with OAuth2 client credentials when a token URL
// is configured, otherwise with the static API key, if any.
func NewChatCompletions(ctx context.Context, cfg *config.Config) *ChatCompletions {
	client := httpclient.New(cfg.InferenceTimeout)
	if cfg.InferenceTokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.InferenceClientID,
			ClientSecret: cfg.InferenceClientSecret,
			TokenURL:     cfg.InferenceTokenURL,
		}
		client = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, client))
		client.Timeout = cfg.InferenceTimeout
	}
	return &ChatCompletions{
		baseURL:  strings.TrimSuffix(cfg.LLMBaseURL, "/"),
		apiKey:   cfg.LLMAPIKey,
		client:   client,
		attempts: cfg.InferenceRetries + 1,
	}
}

func (c *ChatCompletions) Generate(ctx context.Context, req Request) (string, error) {
	payload := map[string]interface{}{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
		"temperature": req.Temperature,
		"top_p":       req.TopP,
		"max_tokens":  req.MaxTokens,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var text string
	err = httpclient.Retry(ctx, c.attempts, 500*time.Millisecond, func() error {
		var callErr error
		text, callErr = c.call(ctx, payloadBytes)
		if callErr != nil {
			logger.Log.WithError(callErr).WithField("model", req.Model).Warn("Chat completion failed")
		}
		return callErr
	})
	return text, err
}

func (c *ChatCompletions) call(ctx context.Context, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &httpclient.StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding chat completion: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no response from model")
	}
	return result.Choices[0].Message.Content, nil
}
