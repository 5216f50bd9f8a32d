package entity

import "time"

// CAProject is a continuous-assessment project posted to a section. The
// stored attachment path is private; responses carry a short-lived signed URL
// minted at read time instead (AttachmentURL, never persisted).
type CAProject struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	SectionID      uint       `json:"section_id" gorm:"index"`
	Title          string     `json:"title" gorm:"size:255"`
	Description    string     `json:"description" gorm:"type:text"`
	AttachmentPath *string    `json:"-"`
	AttachmentURL  string     `json:"attachment_url,omitempty" gorm:"-"`
	DueAt          *time.Time `json:"due_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

type CASubmission struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ProjectID      uint      `json:"project_id" gorm:"index"`
	StudentID      uint      `json:"student_id" gorm:"index"`
	Content        string    `json:"content" gorm:"type:text"`
	AttachmentPath *string   `json:"attachment_path"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type LMSProgress struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	StudentID       uint      `json:"student_id" gorm:"index"`
	Course          string    `json:"course" gorm:"size:191"`
	Unit            string    `json:"unit" gorm:"size:191"`
	PercentComplete int       `json:"percent_complete"`
	UpdatedAt       time.Time `json:"updated_at"`
}
