package chat

import "context"

// Store is the durable record of chats and messages.
//
// Lookups return ErrNotFound for unknown records; any other failure is
// reported as ErrInternal. DeleteChat of an absent chat is a no-op.
type Store interface {
	ListChats(ctx context.Context) ([]Chat, error)
	GetChat(ctx context.Context, id uint64) (*Chat, error)
	GetChatByPublicID(ctx context.Context, publicID string) (*Chat, error)
	CreateChat(ctx context.Context, title, model string) (*Chat, error)
	UpdateChat(ctx context.Context, id uint64, upd ChatUpdate) (*Chat, error)
	DeleteChat(ctx context.Context, id uint64) error

	// ListMessages returns the chat's messages oldest first.
	ListMessages(ctx context.Context, chatID uint64) ([]Message, error)
	// ListRecentMessagesDesc returns up to limit messages newest first.
	ListRecentMessagesDesc(ctx context.Context, chatID uint64, limit int) ([]Message, error)
	// InsertMessage assigns ID, and CreatedAt when it is zero.
	InsertMessage(ctx context.Context, m *Message) error
}
