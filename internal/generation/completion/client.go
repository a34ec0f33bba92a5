// Package completion wraps the hosted completion provider behind a small
// client interface. One Complete call is one non-streaming chat completion
// request; the client performs no retries and no persistence, so any failure
// it returns is scoped to the calling agent.
package completion

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/appgenius/appgenius/internal/common/config"
)

// Client is the completion capability consumed by the orchestrator.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CerebrasClient talks to the Cerebras inference API through its
// OpenAI-compatible chat completions surface.
type CerebrasClient struct {
	client openai.Client
	cfg    config.CerebrasConfig
}

var _ Client = (*CerebrasClient)(nil)

// NewCerebrasClient creates a client bound to one API key. Model, token
// budget, and temperature are fixed by configuration, not per call.
func NewCerebrasClient(cfg config.CerebrasConfig, apiKey string) *CerebrasClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &CerebrasClient{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// Complete issues a single chat completion and returns the raw text of the
// first choice.
func (c *CerebrasClient) Complete(ctx context.Context, system, user string) (string, error) {
	chat, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:               openai.ChatModel(c.cfg.Model),
		MaxCompletionTokens: openai.Int(int64(c.cfg.MaxTokens)),
		Temperature:         openai.Float(c.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return chat.Choices[0].Message.Content, nil
}

// Factory builds a Client for a resolved API key. The generation handler
// resolves the caller's credential per request, so clients are constructed
// per run rather than at startup.
type Factory func(apiKey string) Client

// NewCerebrasFactory returns a Factory producing CerebrasClients with the
// given configuration.
func NewCerebrasFactory(cfg config.CerebrasConfig) Factory {
	return func(apiKey string) Client {
		return NewCerebrasClient(cfg, apiKey)
	}
}
