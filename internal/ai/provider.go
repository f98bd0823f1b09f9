package ai

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Provider produces one completion for an ordered conversation.
// Implementations are bound to a single model.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Options are the sampling settings shared by all providers.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// ErrEmptyResponse is returned when the upstream answered without usable content.
var ErrEmptyResponse = errors.New("ai: empty response")
