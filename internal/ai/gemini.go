package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NewGeminiClient opens a Gemini client. Callers must Close it on shutdown.
// extra options are applied after the API key, e.g. a custom endpoint.
func NewGeminiClient(ctx context.Context, apiKey string, extra ...option.ClientOption) (*genai.Client, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, extra...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// GeminiProvider maps the conversation onto Gemini's chat API: system
// messages become the system instruction, assistant turns become "model".
type GeminiProvider struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiProvider(client *genai.Client, model string, opts Options) *GeminiProvider {
	return &GeminiProvider{client: client, model: model, options: opts}
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.client == nil {
		return "", errors.New("gemini: client is nil")
	}
	if strings.TrimSpace(p.model) == "" {
		return "", errors.New("gemini: model is required")
	}

	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(float32(p.options.Temperature))
	if p.options.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.options.MaxTokens))
	}

	var system []string
	var history []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(history) == 0 {
		return "", errors.New("gemini: no user message")
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n"))}}
	}

	last := history[len(history)-1]
	cs := model.StartChat()
	cs.History = history[:len(history)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		break
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
