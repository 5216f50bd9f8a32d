package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrValidation    = errors.New("invalid request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
)

// Actions is the closed set of server-validated portal mutations.
var Actions = []string{
	"submit_quiz", "submit_ca", "update_ca", "send_message",
	"mark_message_read", "mark_all_messages_read", "mark_notice_read",
}

// StudentActionService executes the fixed set of mutations a student session
// may perform. Every mutation re-checks ownership or recipient authorization
// server-side; nothing from the request body is trusted for either.
type StudentActionService struct {
	db    *gorm.DB
	users UserService
}

func NewStudentActionService(db *gorm.DB, users UserService) *StudentActionService {
	return &StudentActionService{db: db, users: users}
}

func (s *StudentActionService) Perform(student *entity.Student, action string, data json.RawMessage) (interface{}, error) {
	switch action {
	case "submit_quiz":
		return s.submitQuiz(student, data)
	case "submit_ca":
		return s.submitCA(student, data)
	case "update_ca":
		return s.updateCA(student, data)
	case "send_message":
		return s.sendMessage(student, data)
	case "mark_message_read":
		return s.markMessageRead(student, data)
	case "mark_all_messages_read":
		return s.markAllMessagesRead(student)
	case "mark_notice_read":
		return s.markNoticeRead(student, data)
	}
	return nil, ErrInvalidAction
}

// submitQuiz grades server-side: the question's correct answer is re-fetched
// and any client-supplied correctness flag is ignored outright.
func (s *StudentActionService) submitQuiz(student *entity.Student, data json.RawMessage) (interface{}, error) {
	var req struct {
		QuizID         uint   `json:"quiz_id"`
		QuestionID     uint   `json:"question_id"`
		SelectedAnswer string `json:"selected_answer"`
		IsCorrect      *bool  `json:"is_correct"` // ignored
	}
	if err := json.Unmarshal(data, &req); err != nil || req.QuestionID == 0 {
		return nil, ErrValidation
	}

	var question entity.QuizQuestion
	err := s.db.Where("id = ?", req.QuestionID).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sub := entity.QuizSubmission{
		QuizID:         question.QuizID,
		QuestionID:     question.ID,
		StudentID:      student.ID,
		SelectedAnswer: req.SelectedAnswer,
		IsCorrect:      req.SelectedAnswer == question.CorrectAnswer,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *StudentActionService) submitCA(student *entity.Student, data json.RawMessage) (interface{}, error) {
	var req struct {
		ProjectID uint   `json:"project_id"`
		Content   string `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ProjectID == 0 {
		return nil, ErrValidation
	}

	var cnt int64
	err := s.db.Model(&entity.CAProject{}).
		Where("id = ? AND section_id = ?", req.ProjectID, student.SectionID).
		Count(&cnt).Error
	if err != nil {
		return nil, err
	}
	if cnt == 0 {
		return nil, ErrNotFound
	}

	sub := entity.CASubmission{
		ProjectID: req.ProjectID,
		StudentID: student.ID,
		Content:   req.Content,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// updateCA refetches the submission scoped to the caller's own student id
// before mutating; a miss fails closed, never a silent no-op.
func (s *StudentActionService) updateCA(student *entity.Student, data json.RawMessage) (interface{}, error) {
	var req struct {
		SubmissionID uint   `json:"submission_id"`
		Content      string `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.SubmissionID == 0 {
		return nil, ErrValidation
	}

	var sub entity.CASubmission
	err := s.db.Where("id = ? AND student_id = ?", req.SubmissionID, student.ID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if err := s.db.Model(&sub).Update("content", req.Content).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// sendMessage enforces the recipient rule: a named recipient must be either
// the teacher owning the student's section or an admin-role holder, checked
// by two independent lookups OR'd together. A nil recipient routes to the
// general admin inbox and is always permitted.
func (s *StudentActionService) sendMessage(student *entity.Student, data json.RawMessage) (interface{}, error) {
	var req struct {
		RecipientUserID *uint  `json:"recipient_user_id"`
		Content         string `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ErrValidation
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrValidation
	}

	if req.RecipientUserID != nil {
		ok, err := s.authorizedRecipient(student, *req.RecipientUserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnauthorized
		}
	}

	msg := entity.StudentMessage{
		Sender:          entity.NewIdentityRef(entity.StudentIdentity(student.ID)),
		RecipientUserID: req.RecipientUserID,
		Content:         content,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *StudentActionService) authorizedRecipient(student *entity.Student, recipientID uint) (bool, error) {
	var teacherCnt int64
	err := s.db.Model(&entity.Section{}).
		Where("id = ? AND teacher_id = ?", student.SectionID, recipientID).
		Count(&teacherCnt).Error
	if err != nil {
		return false, err
	}
	if teacherCnt > 0 {
		return true, nil
	}
	return s.users.IsAdmin(recipientID)
}

func (s *StudentActionService) markMessageRead(student *entity.Student, data json.RawMessage) (interface{}, error) {
	var req struct {
		MessageID uint `json:"message_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.MessageID == 0 {
		return nil, ErrValidation
	}

	var msg entity.StudentMessage
	err := s.db.Where("id = ? AND recipient_student_id = ?", req.MessageID, student.ID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	now := time.Now()
	updates := map[string]interface{}{"is_read": true, "read_at": &now}
	if err := s.db.Model(&msg).Updates(updates).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *StudentActionService) markAllMessagesRead(student *entity.Student) (interface{}, error) {
	now := time.Now()
	res := s.db.Model(&entity.StudentMessage{}).
		Where("recipient_student_id = ? AND is_read = ?", student.ID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if res.Error != nil {
		return nil, res.Error
	}
	return map[string]interface{}{"updated": res.RowsAffected}, nil
}

func (s *StudentActionService) markNoticeRead(student *entity.Student, data json.RawMessage) (interface{}, error) {
	var req struct {
		NoticeID uint `json:"notice_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.NoticeID == 0 {
		return nil, ErrValidation
	}

	var notice entity.Notice
	err := s.db.Where("id = ? AND recipient_student_id = ?", req.NoticeID, student.ID).First(&notice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	now := time.Now()
	updates := map[string]interface{}{"is_read": true, "read_at": &now}
	if err := s.db.Model(&notice).Updates(updates).Error; err != nil {
		return nil, err
	}
	return notice, nil
}
