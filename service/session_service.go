package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

const SessionTTL = 24 * time.Hour

var ErrSessionInvalid = errors.New("invalid or expired session")

// SessionService owns the student session table. Sessions are created on
// login, invalidated on logout or lazy expiry, and never deleted.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// newToken builds an opaque token from two concatenated random UUIDs.
func newToken() string {
	return uuid.NewString() + uuid.NewString()
}

func (s *SessionService) Create(studentID uint) (*entity.StudentSession, error) {
	now := time.Now()
	sess := &entity.StudentSession{
		Token:     newToken(),
		StudentID: studentID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
		Active:    true,
	}
	if err := s.db.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate looks up an active session by token. A session found active but
// past its expiry is flipped inactive before the caller is rejected, so
// expiry needs no background sweeper. Repeated validation after expiry never
// resurrects the session.
func (s *SessionService) Validate(token string) (*entity.StudentSession, error) {
	var sess entity.StudentSession
	err := s.db.Where("token = ? AND active = ?", token, true).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !time.Now().Before(sess.ExpiresAt) {
		if err := s.expire(&sess); err != nil {
			return nil, err
		}
		return nil, ErrSessionInvalid
	}
	return &sess, nil
}

func (s *SessionService) expire(sess *entity.StudentSession) error {
	return s.db.Model(sess).Update("active", false).Error
}

// Invalidate ends a session on logout, stamping the logout time and computed
// duration. A token with no session row is not an error.
func (s *SessionService) Invalidate(token string) (*entity.StudentSession, error) {
	var sess entity.StudentSession
	err := s.db.Where("token = ?", token).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	now := time.Now()
	minutes := int(now.Sub(sess.CreatedAt).Minutes())
	updates := map[string]interface{}{
		"active":           false,
		"logged_out_at":    &now,
		"duration_minutes": &minutes,
	}
	if err := s.db.Model(&sess).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}
