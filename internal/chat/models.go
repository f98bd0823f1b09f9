package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Chat struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PublicID  string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"publicId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Model     string    `gorm:"type:varchar(128);not null" json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Chat) TableName() string { return "chats" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    uint64    `gorm:"not null;index:idx_messages_chat_created,priority:1" json:"chatId"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Username  string    `gorm:"type:varchar(128);not null" json:"username"`
	Model     string    `gorm:"type:varchar(128);not null" json:"model"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created,priority:2" json:"createdAt"`

	// Messages go away with their chat.
	Chat *Chat `gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Message) TableName() string { return "messages" }

// ChatUpdate is a partial update; nil fields are left unchanged.
type ChatUpdate struct {
	Title *string `json:"title"`
	Model *string `json:"model"`
}

func (u ChatUpdate) Empty() bool {
	return u.Title == nil && u.Model == nil
}
