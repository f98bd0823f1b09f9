package chat

import (
	"context"
	"time"
)

type EventType string

const (
	EventChatCreated    EventType = "chat.created"
	EventChatUpdated    EventType = "chat.updated"
	EventChatDeleted    EventType = "chat.deleted"
	EventMessageCreated EventType = "message.created"
)

// Event describes a committed change. It is published after the write.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    uint64    `json:"chatId"`
	PublicID  string    `json:"publicId"`
	MessageID uint64    `json:"messageId,omitempty"`
	Role      Role      `json:"role,omitempty"`
	Model     string    `json:"model"`
	At        time.Time `json:"at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

func chatEvent(t EventType, c *Chat, at time.Time) Event {
	return Event{Type: t, ChatID: c.ID, PublicID: c.PublicID, Model: c.Model, At: at}
}

func messageEvent(c *Chat, m *Message) Event {
	return Event{
		Type:      EventMessageCreated,
		ChatID:    c.ID,
		PublicID:  c.PublicID,
		MessageID: m.ID,
		Role:      m.Role,
		Model:     m.Model,
		At:        m.CreatedAt,
	}
}
