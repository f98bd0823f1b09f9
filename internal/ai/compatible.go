package ai

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
)

// CompatibleConfig is shared by every model served from one gateway.
type CompatibleConfig struct {
	BaseURL string
	APIKey  string
	// SiteURL and AppName are sent as attribution headers when set.
	SiteURL string
	AppName string
	Options Options
	Client  *http.Client
}

// CompatibleProvider posts to <BaseURL>/chat/completions of any
// OpenAI-compatible gateway.
type CompatibleProvider struct {
	cfg      CompatibleConfig
	model    string
	endpoint string
}

func NewCompatibleProvider(cfg CompatibleConfig, model string) (*CompatibleProvider, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	model = strings.TrimSpace(model)
	switch {
	case base == "":
		return nil, errors.New("compatible: base url is required")
	case strings.TrimSpace(cfg.APIKey) == "":
		return nil, errors.New("compatible: api key is required")
	case model == "":
		return nil, errors.New("compatible: model is required")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 90 * time.Second}
	}
	return &CompatibleProvider{cfg: cfg, model: model, endpoint: base + "/chat/completions"}, nil
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *CompatibleProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	in := completionRequest{
		Model:       p.model,
		Messages:    make([]completionMessage, len(messages)),
		Temperature: p.cfg.Options.Temperature,
		MaxTokens:   p.cfg.Options.MaxTokens,
	}
	for i, m := range messages {
		in.Messages[i] = completionMessage(m)
	}

	var out completionResponse
	if err := p.post(ctx, in, &out); err != nil {
		return "", err
	}
	return out.content()
}

func (p *CompatibleProvider) post(ctx context.Context, in completionRequest, out *completionResponse) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if p.cfg.SiteURL != "" {
		req.Header.Set("HTTP-Referer", p.cfg.SiteURL)
	}
	if p.cfg.AppName != "" {
		req.Header.Set("X-Title", p.cfg.AppName)
	}

	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("compatible: status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("compatible: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("compatible: decode: %w", err)
	}
	return nil
}

// content returns the first choice, or the gateway's error when it sent one
// with a 2xx status.
func (r *completionResponse) content() (string, error) {
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("compatible: %s", r.Error.Message)
	}
	if len(r.Choices) == 0 || strings.TrimSpace(r.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return r.Choices[0].Message.Content, nil
}
