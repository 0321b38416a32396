package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/httpclient"
)

type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock invokes a Mistral-family text model hosted on AWS Bedrock.
type Bedrock struct {
	client   modelInvoker
	attempts int
}

func NewBedrock(ctx context.Context, cfg *config.Config) (*Bedrock, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithHTTPClient(httpclient.New(cfg.InferenceTimeout)),
	}
	if cfg.AWSKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSKeyID, cfg.AWSSecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &Bedrock{
		client:   bedrockruntime.NewFromConfig(awsCfg),
		attempts: cfg.InferenceRetries + 1,
	}, nil
}

type mistralRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type mistralResponse struct {
	Outputs []struct {
		Text string `json:"text"`
	} `json:"outputs"`
}

func (b *Bedrock) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(mistralRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
	})
	if err != nil {
		return "", err
	}

	var out *bedrockruntime.InvokeModelOutput
	err = httpclient.Retry(ctx, b.attempts, 500*time.Millisecond, func() error {
		var callErr error
		out, callErr = b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(req.Model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("invoking %s: %w", req.Model, err)
	}

	var resp mistralResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decoding bedrock response: %w", err)
	}
	if len(resp.Outputs) == 0 {
		return "", errors.New("bedrock response has no outputs")
	}
	return resp.Outputs[0].Text, nil
}
