package entity

import "time"

// Student is a portal account authenticated by name + student code, not by
// password. Login matching is case-insensitive on the name and exact on the
// code.
type Student struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FullName    string    `json:"full_name" gorm:"size:255;index"`
	StudentCode string    `json:"student_code" gorm:"size:64;index"`
	SectionID   uint      `json:"section_id" gorm:"index"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Section groups students under one owning teacher.
type Section struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:191"`
	TeacherID uint      `json:"teacher_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}
