// Package llm talks to OpenAI-compatible chat completion endpoints such as
// OpenRouter.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

var ErrEmptyChoices = errors.New("empty chat completion choices")

// Client sends one user message to model and returns the first choice.
type Client interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Logger != nil {
		transport = &loggingTransport{base: transport, logger: cfg.Logger}
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout, Transport: transport}

	return &OpenAIClient{client: openai.NewClientWithConfig(clientConfig)}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	return resp.Choices[0].Message.Content, nil
}

type loggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	attrs := []any{
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("duration", time.Since(start).String()),
	}
	if err != nil {
		t.logger.WarnContext(req.Context(), "completion_request_failed", append(attrs, slog.String("error", err.Error()))...)
		return resp, err
	}
	t.logger.DebugContext(req.Context(), "completion_request", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}
