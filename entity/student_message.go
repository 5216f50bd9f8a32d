package entity

import "time"

// StudentMessage is a portal inbox message between a student and staff. A nil
// RecipientUserID routes the message to the general admin inbox.
type StudentMessage struct {
	ID                 uint        `json:"id" gorm:"primaryKey"`
	Sender             IdentityRef `json:"sender" gorm:"embedded;embeddedPrefix:sender_"`
	RecipientUserID    *uint       `json:"recipient_user_id" gorm:"index"`
	RecipientStudentID *uint       `json:"recipient_student_id" gorm:"index"`
	Content            string      `json:"content" gorm:"type:text"`
	IsRead             bool        `json:"is_read" gorm:"default:false"`
	ReadAt             *time.Time  `json:"read_at"`
	CreatedAt          time.Time   `json:"created_at" gorm:"index"`
}

// Notice is an announcement targeted at one student.
type Notice struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	RecipientStudentID uint       `json:"recipient_student_id" gorm:"index"`
	Title              string     `json:"title" gorm:"size:255"`
	Body               string     `json:"body" gorm:"type:text"`
	IsRead             bool       `json:"is_read" gorm:"default:false"`
	ReadAt             *time.Time `json:"read_at"`
	CreatedAt          time.Time  `json:"created_at"`
}
