package entity

import "time"

// StaffMessage is a direct message between two staff users. There is no
// conversation entity: a conversation is derived at read time by grouping
// messages whose (sender, recipient) pair involves the current user.
type StaffMessage struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	SenderID      uint       `json:"sender_id" gorm:"index"`
	SenderRole    string     `json:"sender_role" gorm:"size:16"`
	RecipientID   uint       `json:"recipient_id" gorm:"index"`
	RecipientRole string     `json:"recipient_role" gorm:"size:16"`
	Content       string     `json:"content" gorm:"type:text"`
	IsRead        bool       `json:"is_read" gorm:"default:false"`
	ReadAt        *time.Time `json:"read_at"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index"`
}
