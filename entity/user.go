package entity

import "time"

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User is a staff account (teacher or admin). Students are a separate
// directory, see Student.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:191"`
	PasswordHash string    `json:"-" gorm:"size:191"`
	Role         string    `json:"role" gorm:"size:16;default:teacher"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
