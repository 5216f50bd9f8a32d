package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/utils"
)

var ErrInvalidDataType = errors.New("invalid data type")

// DataTypes is the closed set of records the portal proxy exposes.
var DataTypes = []string{
	"profile", "messages", "notices", "quizzes", "quiz_questions",
	"quiz_submissions", "lms_progress", "ca_projects", "ca_submissions",
	"sections",
}

// StudentDataService is the capability-scoped read proxy for the student
// portal. Every query is scoped server-side to the session's student; the
// client never supplies its own identity.
type StudentDataService struct {
	db     *gorm.DB
	users  UserService
	signer *utils.URLSigner
}

func NewStudentDataService(db *gorm.DB, users UserService, signer *utils.URLSigner) *StudentDataService {
	return &StudentDataService{db: db, users: users, signer: signer}
}

// LoadStudent resolves a session's owning student row.
func (s *StudentDataService) LoadStudent(id uint) (*entity.Student, error) {
	var student entity.Student
	if err := s.db.First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// Fetch returns the requested records for the student. Unknown data types are
// a validation error, never a store query.
func (s *StudentDataService) Fetch(student *entity.Student, dataType string, filters map[string]interface{}) (interface{}, error) {
	switch dataType {
	case "profile":
		return student, nil

	case "messages":
		var msgs []entity.StudentMessage
		q := s.db.Where("recipient_student_id = ? OR sender_student_id = ?", student.ID, student.ID)
		if unread, ok := filters["unread"].(bool); ok && unread {
			q = q.Where("is_read = ? AND recipient_student_id = ?", false, student.ID)
		}
		err := q.Order("created_at ASC").Find(&msgs).Error
		return msgs, err

	case "notices":
		var notices []entity.Notice
		err := s.db.Where("recipient_student_id = ?", student.ID).
			Order("created_at DESC").Find(&notices).Error
		return notices, err

	case "quizzes":
		var quizzes []entity.Quiz
		err := s.db.Where("section_id = ?", student.SectionID).Find(&quizzes).Error
		return quizzes, err

	case "quiz_questions":
		// CorrectAnswer carries `json:"-"`: the grading secret never reaches
		// the client even though it is selected here.
		var questions []entity.QuizQuestion
		q := s.db.Joins("JOIN quizzes ON quizzes.id = quiz_questions.quiz_id").
			Where("quizzes.section_id = ?", student.SectionID)
		if quizID, ok := numericFilter(filters, "quiz_id"); ok {
			q = q.Where("quiz_questions.quiz_id = ?", quizID)
		}
		err := q.Find(&questions).Error
		return questions, err

	case "quiz_submissions":
		var subs []entity.QuizSubmission
		q := s.db.Where("student_id = ?", student.ID)
		if quizID, ok := numericFilter(filters, "quiz_id"); ok {
			q = q.Where("quiz_id = ?", quizID)
		}
		err := q.Find(&subs).Error
		return subs, err

	case "lms_progress":
		var rows []entity.LMSProgress
		err := s.db.Where("student_id = ?", student.ID).Find(&rows).Error
		return rows, err

	case "ca_projects":
		var projects []entity.CAProject
		err := s.db.Where("section_id = ?", student.SectionID).Find(&projects).Error
		if err != nil {
			return nil, err
		}
		// attachment exposure is capability-based: mint a short-lived signed
		// URL per request instead of persisting anything public
		for i := range projects {
			if projects[i].AttachmentPath != nil {
				projects[i].AttachmentURL = s.signer.Sign(*projects[i].AttachmentPath)
			}
		}
		return projects, nil

	case "ca_submissions":
		var subs []entity.CASubmission
		err := s.db.Where("student_id = ?", student.ID).Find(&subs).Error
		return subs, err

	case "sections":
		var sections []entity.Section
		err := s.db.Where("id = ?", student.SectionID).Find(&sections).Error
		return sections, err
	}
	return nil, ErrInvalidDataType
}

// SectionTeacher resolves the teacher owning the student's section, or nil.
func (s *StudentDataService) SectionTeacher(student *entity.Student) (*entity.User, error) {
	var section entity.Section
	err := s.db.First(&section, student.SectionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var teacher entity.User
	err = s.db.Where("id = ? AND active = ?", section.TeacherID, true).First(&teacher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &teacher, nil
}

// Recipient is one entry the student may address a message to.
type Recipient struct {
	UserID *uint  `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Recipients lists the student's section teacher, all admins, and the general
// admin inbox (always present, nil user id).
func (s *StudentDataService) Recipients(student *entity.Student) ([]Recipient, error) {
	out := []Recipient{{UserID: nil, Name: "General Admin", Role: "general_admin"}}

	teacher, err := s.SectionTeacher(student)
	if err != nil {
		return nil, err
	}
	if teacher != nil {
		id := teacher.ID
		out = append(out, Recipient{UserID: &id, Name: teacher.Name, Role: entity.RoleTeacher})
	}

	admins, err := s.users.Admins()
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		id := a.ID
		out = append(out, Recipient{UserID: &id, Name: a.Name, Role: entity.RoleAdmin})
	}
	return out, nil
}

func numericFilter(filters map[string]interface{}, key string) (uint, bool) {
	switch v := filters[key].(type) {
	case float64:
		return uint(v), v > 0
	case int:
		return uint(v), v > 0
	case uint:
		return v, v > 0
	}
	return 0, false
}
