package entity

import "time"

type Quiz struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SectionID   uint      `json:"section_id" gorm:"index"`
	Title       string    `json:"title" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuizQuestion holds the grading secret. CorrectAnswer is never serialized;
// grading happens server-side only.
type QuizQuestion struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	QuizID        uint      `json:"quiz_id" gorm:"index"`
	Prompt        string    `json:"prompt" gorm:"type:text"`
	OptionA       string    `json:"option_a" gorm:"size:255"`
	OptionB       string    `json:"option_b" gorm:"size:255"`
	OptionC       string    `json:"option_c" gorm:"size:255"`
	OptionD       string    `json:"option_d" gorm:"size:255"`
	CorrectAnswer string    `json:"-" gorm:"size:255"`
	CreatedAt     time.Time `json:"created_at"`
}

type QuizSubmission struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	QuizID         uint      `json:"quiz_id" gorm:"index"`
	QuestionID     uint      `json:"question_id" gorm:"index"`
	StudentID      uint      `json:"student_id" gorm:"index"`
	SelectedAnswer string    `json:"selected_answer" gorm:"size:255"`
	IsCorrect      bool      `json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
}
