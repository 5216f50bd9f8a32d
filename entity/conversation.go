package entity

import (
	"time"

	"gorm.io/gorm"
)

type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

const (
	ParticipantAdmin  = "admin"
	ParticipantMember = "member"
)

// Conversation is a chat thread. Direct conversations have exactly two active
// participants; group conversations have two or more and a title.
type Conversation struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Kind        ConversationKind `json:"kind" gorm:"size:16;index"`
	Title       string           `json:"title" gorm:"size:191"`
	Description string           `json:"description" gorm:"type:text"`
	CreatedBy   IdentityRef      `json:"created_by" gorm:"embedded;embeddedPrefix:created_by_"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type Participant struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	ConversationID uint        `json:"conversation_id" gorm:"index"`
	Member         IdentityRef `json:"member" gorm:"embedded;embeddedPrefix:member_"`
	Role           string      `json:"role" gorm:"size:16;default:member"`
	JoinedAt       time.Time   `json:"joined_at"`
	LastReadAt     *time.Time  `json:"last_read_at"`
	Active         bool        `json:"active"`
}

// Message rows are never hard-deleted; DeletedAt marks a tombstone that gorm
// excludes from every read path.
type Message struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ConversationID uint           `json:"conversation_id" gorm:"index"`
	Sender         IdentityRef    `json:"sender" gorm:"embedded;embeddedPrefix:sender_"`
	Content        string         `json:"content" gorm:"type:text"`
	AttachmentPath *string        `json:"attachment_path"`
	EditedAt       *time.Time     `json:"edited_at"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// TypingIndicator is ephemeral: the writer clears its own row after 3s of
// inactivity, and readers additionally drop rows older than 5s so a crashed
// writer self-heals for observers.
type TypingIndicator struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	ConversationID uint        `json:"conversation_id" gorm:"index"`
	Member         IdentityRef `json:"member" gorm:"embedded;embeddedPrefix:member_"`
	CreatedAt      time.Time   `json:"created_at" gorm:"index"`
}
