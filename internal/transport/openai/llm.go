// Package openai adapts the OpenAI-compatible chat completion and audio
// APIs to the classifier, generator, and transcription ports.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/metrics"
)

// classifyInstruction frames the classification request. The completion
// is expected to be a JSON object, but callers tolerate prose and fences.
const classifyInstruction = `Categorize this shopping query:
%s
Return JSON with: intent, category, filters.
Intent is one of: search, compare, explain, recommend, analyze, review.
Respond ONLY with the JSON object.`

// Client calls an OpenAI-compatible API for classification, generation,
// and audio transcription. Every call is bounded by the configured
// timeout; there is no internal retry.
type Client struct {
	client          *openai.Client
	model           string
	transcribeModel string
	timeout         time.Duration
	logger          *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
	Timeout         time.Duration
	Logger          *zap.Logger
}

// NewClient creates the provider client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:          openai.NewClientWithConfig(clientCfg),
		model:           cfg.Model,
		transcribeModel: cfg.TranscribeModel,
		timeout:         cfg.Timeout,
		logger:          cfg.Logger,
	}
}

// Classify sends the classification instruction and returns the raw
// completion text.
func (c *Client) Classify(ctx context.Context, query string) (string, error) {
	return c.complete(ctx, "classify", fmt.Sprintf(classifyInstruction, query))
}

// Generate sends a composed prompt and returns the completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "generate", prompt)
}

func (c *Client) complete(ctx context.Context, op, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		c.logger.Warn("completion request failed",
			zap.String("op", op), zap.Duration("duration", duration), zap.Error(err))
		return "", parseAPIError(op, err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", fmt.Errorf("%s: empty completion response", op)
	}

	metrics.LLMRequestsTotal.WithLabelValues(op, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(op, c.model).Observe(duration.Seconds())

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(op string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s API error %d: %s", op, reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s", op, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%s request failed: %w", op, err)
}
