package entity

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditLogin  = "login"
	AuditLogout = "logout"
)

type AuditLog struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	Actor     IdentityRef       `json:"actor" gorm:"embedded;embeddedPrefix:actor_"`
	Action    string            `json:"action" gorm:"size:32;index"`
	Detail    datatypes.JSONMap `json:"detail" gorm:"type:json"`
	CreatedAt time.Time         `json:"created_at"`
}

// All lists every persisted entity for migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Student{},
		&Section{},
		&StudentSession{},
		&Conversation{},
		&Participant{},
		&Message{},
		&TypingIndicator{},
		&StaffMessage{},
		&StudentMessage{},
		&Notice{},
		&Quiz{},
		&QuizQuestion{},
		&QuizSubmission{},
		&CAProject{},
		&CASubmission{},
		&LMSProgress{},
		&AuditLog{},
	}
}
