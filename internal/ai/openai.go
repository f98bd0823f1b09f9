package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewOpenAIClient builds an SDK client for an OpenAI-compatible base URL.
// Retries are disabled; the chat service owns the timeout budget.
func NewOpenAIClient(baseURL, apiKey string) *openai.Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
}

// OpenAIProvider uses the official openai-go SDK.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	options Options
}

func NewOpenAIProvider(client *openai.Client, model string, opts Options) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model, options: opts}
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.client == nil {
		return "", errors.New("openai: client is nil")
	}
	if strings.TrimSpace(p.model) == "" {
		return "", errors.New("openai: model is required")
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.F(p.model),
		Messages:    openai.F(toOpenAIMessages(messages)),
		Temperature: openai.F(p.options.Temperature),
	}
	if p.options.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(p.options.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
