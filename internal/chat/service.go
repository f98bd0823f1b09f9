package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/logger"
)

const (
	defaultSystemPrompt = "You are an AI assistant who knows everything."
	defaultTimeout      = 30 * time.Second
)

type ServiceConfig struct {
	// Provider is the registry name used for every completion.
	Provider     string
	SystemPrompt string
	// Timeout bounds a single provider call.
	Timeout time.Duration
	// ContextWindowSize is how many of the chat's most recent messages are
	// sent to the provider. 1 sends only the message being submitted.
	ContextWindowSize int
}

type Service struct {
	store    Store
	resolver *Resolver
	registry *ai.Registry
	cfg      ServiceConfig
	events   EventPublisher
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store Store, registry *ai.Registry, cfg ServiceConfig, log *logger.Logger) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ContextWindowSize <= 0 || cfg.ContextWindowSize > 100 {
		cfg.ContextWindowSize = 1
	}
	log = log.With("component", "chat.service")
	if !registry.Has(cfg.Provider) {
		log.Warn("completion provider not registered, replies will be skipped",
			"provider", cfg.Provider, "registered", registry.Names())
	}
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		registry: registry,
		cfg:      cfg,
		events:   nopPublisher{},
		log:      log,
		now:      time.Now,
	}
}

// SetEventPublisher enables change notifications. nil disables them.
func (s *Service) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = nopPublisher{}
	}
	s.events = p
}

func (s *Service) ListChats(ctx context.Context) ([]Chat, error) {
	return s.store.ListChats(ctx)
}

// GetChat resolves identifier as a surrogate id or a public id.
func (s *Service) GetChat(ctx context.Context, identifier string) (*Chat, error) {
	return s.resolver.Resolve(ctx, identifier)
}

func (s *Service) ListMessages(ctx context.Context, identifier string) ([]Message, error) {
	c, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, c.ID)
}

func (s *Service) CreateChat(ctx context.Context, title, model string) (*Chat, error) {
	c, err := s.store.CreateChat(ctx, strings.TrimSpace(title), strings.TrimSpace(model))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, chatEvent(EventChatCreated, c, c.CreatedAt))
	return c, nil
}

func (s *Service) UpdateChat(ctx context.Context, id uint64, upd ChatUpdate) (*Chat, error) {
	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		upd.Title = &t
	}
	if upd.Model != nil {
		m := strings.TrimSpace(*upd.Model)
		upd.Model = &m
	}
	c, err := s.store.UpdateChat(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if !upd.Empty() {
		s.publish(ctx, chatEvent(EventChatUpdated, c, s.now()))
	}
	return c, nil
}

// DeleteChat removes the chat and its messages. Deleting an absent chat is a no-op.
func (s *Service) DeleteChat(ctx context.Context, id uint64) error {
	c, err := s.store.GetChat(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.DeleteChat(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, chatEvent(EventChatDeleted, c, s.now()))
	return nil
}

type SendInput struct {
	ChatRef  string
	Content  string
	Username string
}

func (in SendInput) validate() error {
	switch {
	case strings.TrimSpace(in.ChatRef) == "":
		return fmt.Errorf("%w: chatId is required", ErrValidation)
	case in.Content == "":
		return fmt.Errorf("%w: content is required", ErrValidation)
	case strings.TrimSpace(in.Username) == "":
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	return nil
}

// SendMessage stores the user's message, asks the provider for a reply and
// stores it. It returns [user] or [user, assistant].
//
// Only validation, resolution and the user message write can fail the call.
// Anything that goes wrong from the provider call onwards is logged and the
// user message is returned alone.
func (s *Service) SendMessage(ctx context.Context, in SendInput) ([]Message, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c, err := s.resolver.Resolve(ctx, strings.TrimSpace(in.ChatRef))
	if err != nil {
		return nil, err
	}

	userMsg := &Message{
		ChatID:    c.ID,
		Role:      RoleUser,
		Content:   in.Content,
		Username:  in.Username,
		Model:     c.Model,
		CreatedAt: s.stamp(),
	}
	if err := s.store.InsertMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	s.publish(ctx, messageEvent(c, userMsg))

	// the provider round trip must not be cut short by the client going away,
	// only by the timeout
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.complete(pctx, c, userMsg)
	if err != nil {
		s.log.Warn("completion failed, returning user message only",
			"chat_id", c.ID, "model", c.Model, "cost", time.Since(start), "error", err)
		return []Message{*userMsg}, nil
	}

	assistantMsg := &Message{
		ChatID:    c.ID,
		Role:      RoleAssistant,
		Content:   reply,
		Username:  in.Username,
		Model:     c.Model,
		CreatedAt: s.after(userMsg.CreatedAt),
	}
	if err := s.store.InsertMessage(pctx, assistantMsg); err != nil {
		s.log.Error("failed to store assistant message", "chat_id", c.ID, "error", err)
		return []Message{*userMsg}, nil
	}
	s.publish(pctx, messageEvent(c, assistantMsg))

	return []Message{*userMsg, *assistantMsg}, nil
}

func (s *Service) complete(ctx context.Context, c *Chat, userMsg *Message) (string, error) {
	provider, err := s.registry.Get(ctx, s.cfg.Provider, c.Model)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}

	reply, err := provider.Chat(ctx, s.buildContext(ctx, c, userMsg))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: %w", ErrProvider, ai.ErrEmptyResponse)
	}
	return reply, nil
}

// buildContext returns the system preamble followed by the conversation,
// oldest first, ending with the submitted message.
func (s *Service) buildContext(ctx context.Context, c *Chat, userMsg *Message) []ai.Message {
	latestOnly := []ai.Message{
		{Role: ai.RoleSystem, Content: s.cfg.SystemPrompt},
		{Role: ai.RoleUser, Content: userMsg.Content},
	}
	if s.cfg.ContextWindowSize <= 1 {
		return latestOnly
	}

	recentDesc, err := s.store.ListRecentMessagesDesc(ctx, c.ID, s.cfg.ContextWindowSize)
	if err != nil || len(recentDesc) == 0 {
		if err != nil {
			s.log.Warn("could not load history, sending latest message only", "chat_id", c.ID, "error", err)
		}
		return latestOnly
	}

	out := make([]ai.Message, 0, len(recentDesc)+1)
	out = append(out, ai.Message{Role: ai.RoleSystem, Content: s.cfg.SystemPrompt})
	for i := len(recentDesc) - 1; i >= 0; i-- {
		m := recentDesc[i]
		if m.ID != userMsg.ID && strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// stamp is the current time at the millisecond precision of DATETIME(3)
// columns, so stored values equal the ones returned.
func (s *Service) stamp() time.Time {
	return s.now().Truncate(time.Millisecond)
}

// after returns a stamp at least one millisecond past prev.
func (s *Service) after(prev time.Time) time.Time {
	prev = prev.Truncate(time.Millisecond)
	now := s.stamp()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("failed to publish event", "type", ev.Type, "chat_id", ev.ChatID, "error", err)
	}
}
