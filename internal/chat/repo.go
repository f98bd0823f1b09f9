package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/suPer8Hu/ai-chat/internal/logger"
)

// Repo is the GORM-backed Store.
type Repo struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ Store = (*Repo)(nil)

func NewRepo(db *gorm.DB, log *logger.Logger) *Repo {
	return &Repo{db: db, log: log.With("repo", "chat")}
}

// AutoMigrate creates or updates the chat tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Chat{}, &Message{})
}

func (r *Repo) ListChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&chats).Error; err != nil {
		return nil, r.internal("list chats", err)
	}
	return chats, nil
}

func (r *Repo) GetChat(ctx context.Context, id uint64) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, r.lookupErr("get chat", err)
	}
	return &c, nil
}

func (r *Repo) GetChatByPublicID(ctx context.Context, publicID string) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&c).Error; err != nil {
		return nil, r.lookupErr("get chat by public id", err)
	}
	return &c, nil
}

func (r *Repo) CreateChat(ctx context.Context, title, model string) (*Chat, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateModel(model); err != nil {
		return nil, err
	}

	publicID, err := NewPublicID()
	if err != nil {
		return nil, r.internal("allocate public id", err)
	}
	c := &Chat{PublicID: publicID, Title: title, Model: model}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, r.internal("create chat", err)
	}
	return c, nil
}

func (r *Repo) UpdateChat(ctx context.Context, id uint64, upd ChatUpdate) (*Chat, error) {
	fields := map[string]any{}
	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			return nil, err
		}
		fields["title"] = *upd.Title
	}
	if upd.Model != nil {
		if err := validateModel(*upd.Model); err != nil {
			return nil, err
		}
		fields["model"] = *upd.Model
	}

	var out Chat
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&Chat{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, r.lookupErr("update chat", err)
	}
	return &out, nil
}

// DeleteChat removes the chat and all its messages in one transaction.
func (r *Repo) DeleteChat(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Chat{}).Error
	})
	if err != nil {
		return r.internal("delete chat", err)
	}
	return nil
}

func (r *Repo) ListMessages(ctx context.Context, chatID uint64) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, r.internal("list messages", err)
	}
	return msgs, nil
}

func (r *Repo) ListRecentMessagesDesc(ctx context.Context, chatID uint64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, r.internal("list recent messages", err)
	}
	return msgs, nil
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	if m.ChatID == 0 {
		return fmt.Errorf("%w: chat id is required", ErrValidation)
	}
	if !m.Role.Valid() {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, m.Role)
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return r.internal("insert message", err)
	}
	return nil
}

func (r *Repo) lookupErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return r.internal(op, err)
}

func (r *Repo) internal(op string, err error) error {
	r.log.Error("storage failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	return nil
}

func validateModel(model string) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrValidation)
	}
	return nil
}
