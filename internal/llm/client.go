// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the chat completion API behind a small interface the
// pipeline stages share. Every call goes through retry with exponential
// backoff; stages never talk to the API directly.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/deep-research/pkg/types"
)

// defaultModel matches the model the pipeline was tuned against.
const defaultModel = "gpt-4o-mini"

// ToolCall is the parsed function call returned by a tool request.
type ToolCall struct {
	// Name is the tool the model chose.
	Name string

	// Arguments is the raw JSON argument object for the caller to decode.
	Arguments json.RawMessage
}

// Client abstracts the chat completion API so tests can supply a mock.
// ToolCall offers the research toolset and returns the first tool call the
// model makes, or nil when it answers in plain text. Complete returns a
// plain text completion.
type Client interface {
	ToolCall(ctx context.Context, system, user string) (*ToolCall, error)
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// OpenAI is the production Client backed by the OpenAI chat completions API
// (or any compatible gateway via AIConfig.BaseURL).
type OpenAI struct {
	client     *openai.Client
	model      string
	maxRetries int
}

// New builds an OpenAI client from config. Model and MaxRetries fall back
// to defaults when unset.
func New(cfg types.AIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		maxRetries: maxRetries,
	}
}

// ToolCall sends the conversation with the research toolset attached and
// returns the model's first function call. A plain-text answer returns
// (nil, nil); callers decide whether that is acceptable.
func (o *OpenAI) ToolCall(ctx context.Context, system, user string) (*ToolCall, error) {
	resp, err := o.createWithRetry(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Tools:      researchTools,
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return nil, nil
	}

	tc := msg.ToolCalls[0]
	return &ToolCall{
		Name:      tc.Function.Name,
		Arguments: json.RawMessage(tc.Function.Arguments),
	}, nil
}

// Complete sends a plain completion request and returns the text content.
func (o *OpenAI) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: user},
	}
	if system != "" {
		messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
		}, messages...)
	}

	resp, err := o.createWithRetry(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// createWithRetry calls the completion API with exponential backoff.
func (o *OpenAI) createWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("after %d retries: %w", o.maxRetries, lastErr)
}
