package translate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI translates through a chat-completion model.
type OpenAI struct {
	client *openai.Client
	model  string
	retry  RetryPolicy
}

// NewOpenAI constructs an OpenAI provider. baseURL may point at any
// OpenAI-compatible server; empty selects the public API.
func NewOpenAI(key, baseURL, model string, retry RetryPolicy) (*OpenAI, error) {
	if key == "" {
		return nil, fmt.Errorf("openai: %w", ErrNoKey)
	}
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = newHTTPClient()
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, retry: retry}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) prompt(r Request) string {
	return fmt.Sprintf(
		"Translate the user's text from %s to %s. Reply with the translation only, without quotes or notes.",
		displayName(r.Source), displayName(r.Target))
}

// Translate implements Provider.
func (o *OpenAI) Translate(ctx context.Context, r Request) Result {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.prompt(r)},
			{Role: openai.ChatMessageRoleUser, Content: r.Text},
		},
	}

	return o.retry.do(ctx, func(ctx context.Context) (string, error) {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`), nil
	})
}
