package service

import (
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

var (
	ErrInvalidCredentials = errors.New("Invalid name or student ID")
	ErrAccountDeactivated = errors.New("Your account has been deactivated")
)

// StudentAuthService authenticates students against the directory and mints
// portal sessions. This is the only code path allowed to read student rows
// without an authenticated session.
type StudentAuthService struct {
	db       *gorm.DB
	sessions *SessionService
}

func NewStudentAuthService(db *gorm.DB, sessions *SessionService) *StudentAuthService {
	return &StudentAuthService{db: db, sessions: sessions}
}

// Login matches case-insensitively on the full name and exactly on the
// student code. Duplicate directory entries resolve to the lowest id so
// "first match" is deterministic. A deactivated student is rejected even with
// correct credentials and no session is created.
func (s *StudentAuthService) Login(name, studentCode string) (*entity.Student, *entity.StudentSession, error) {
	name = strings.TrimSpace(name)
	studentCode = strings.TrimSpace(studentCode)

	var student entity.Student
	err := s.db.
		Where("LOWER(full_name) = LOWER(?) AND student_code = ?", name, studentCode).
		Order("id ASC").
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !student.Active {
		return nil, nil, ErrAccountDeactivated
	}

	sess, err := s.sessions.Create(student.ID)
	if err != nil {
		return nil, nil, err
	}
	s.audit(entity.StudentIdentity(student.ID), entity.AuditLogin, datatypes.JSONMap{
		"session_id": sess.ID,
	})
	return &student, sess, nil
}

// Logout is best-effort: an unknown token is not an error.
func (s *StudentAuthService) Logout(token string) error {
	sess, err := s.sessions.Invalidate(token)
	if err != nil {
		return err
	}
	if sess != nil {
		s.audit(entity.StudentIdentity(sess.StudentID), entity.AuditLogout, datatypes.JSONMap{
			"session_id": sess.ID,
		})
	}
	return nil
}

func (s *StudentAuthService) audit(actor entity.Identity, action string, detail datatypes.JSONMap) {
	entry := entity.AuditLog{
		Actor:  entity.NewIdentityRef(actor),
		Action: action,
		Detail: detail,
	}
	// audit writes never fail the calling operation
	_ = s.db.Create(&entry).Error
}
