// Package chat relays a single user message to a chat-completion backend and
// returns the model's reply.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = openai.ChatModelGPT4o

// Completer produces a reply for one standalone user message. There is no
// conversation memory; each call is independent.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// Config holds the chat backend credentials.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Validate reports missing required fields.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api_key must be set")
	}
	return nil
}

// OpenAICompleter implements Completer against the OpenAI chat completions
// API.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

var _ Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter validates cfg and builds the client.
func NewOpenAICompleter(cfg Config) (*OpenAICompleter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chat: invalid config: %w", err)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICompleter{client: openai.NewClient(opts...), model: model}, nil
}

// Complete sends message as a single-turn conversation and returns the first
// choice's content.
func (o *OpenAICompleter) Complete(ctx context.Context, message string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat: completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
