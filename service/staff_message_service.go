package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

// StaffMessageService covers staff-to-staff direct messages. There is no
// conversation entity; previews are derived by grouping messages on the
// unordered (sender, recipient) pair.
type StaffMessageService interface {
	Send(senderID, recipientID uint, content string) (*entity.StaffMessage, error)
	ListConversation(userID, otherUserID uint, limit int, beforeID uint) ([]entity.StaffMessage, error)
	MarkRead(recipientID, senderID uint, ids []uint) (int64, error)
	Previews(userID uint) ([]StaffConversationPreview, error)
}

// StaffConversationPreview is one derived conversation: the counterpart, the
// most recent message, and the unread count for the current user.
type StaffConversationPreview struct {
	CounterpartID   uint                `json:"counterpart_id"`
	CounterpartName string              `json:"counterpart_name"`
	CounterpartRole string              `json:"counterpart_role"`
	LastMessage     entity.StaffMessage `json:"last_message"`
	UnreadCount     int64               `json:"unread_count"`
}

type DBStaffMessageService struct {
	db    *gorm.DB
	users UserService
}

func NewStaffMessageService(db *gorm.DB, users UserService) *DBStaffMessageService {
	return &DBStaffMessageService{db: db, users: users}
}

// Send stamps both parties' role tags from their user rows at write time.
func (s *DBStaffMessageService) Send(senderID, recipientID uint, content string) (*entity.StaffMessage, error) {
	if senderID == recipientID {
		return nil, errors.New("cannot send to self")
	}
	sender, err := s.users.GetByID(senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.users.GetByID(recipientID)
	if err != nil {
		return nil, err
	}
	msg := &entity.StaffMessage{
		SenderID:      sender.ID,
		SenderRole:    sender.Role,
		RecipientID:   recipient.ID,
		RecipientRole: recipient.Role,
		Content:       content,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// ListConversation returns messages between two users ordered newest first.
// If beforeID > 0, returns messages with ID < beforeID for pagination.
func (s *DBStaffMessageService) ListConversation(userID, otherUserID uint, limit int, beforeID uint) ([]entity.StaffMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var msgs []entity.StaffMessage
	q := s.db.Model(&entity.StaffMessage{}).
		Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
			userID, otherUserID, otherUserID, userID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	if err := q.Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flags the given messages read where the caller is the recipient.
func (s *DBStaffMessageService) MarkRead(recipientID, senderID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now := time.Now()
	res := s.db.Model(&entity.StaffMessage{}).
		Where("recipient_id = ? AND sender_id = ? AND id IN (?) AND is_read = ?", recipientID, senderID, ids, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	return res.RowsAffected, res.Error
}

// Previews walks every message involving the user, newest first, keeping the
// first message seen per counterpart as the preview and counting unread
// incoming rows. A full recompute per call trades read load for correctness.
func (s *DBStaffMessageService) Previews(userID uint) ([]StaffConversationPreview, error) {
	var msgs []entity.StaffMessage
	err := s.db.
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	order := make([]uint, 0)
	previews := make(map[uint]*StaffConversationPreview)
	for _, m := range msgs {
		counterpart := m.SenderID
		counterpartRole := m.SenderRole
		if m.SenderID == userID {
			counterpart = m.RecipientID
			counterpartRole = m.RecipientRole
		}
		p, ok := previews[counterpart]
		if !ok {
			p = &StaffConversationPreview{
				CounterpartID:   counterpart,
				CounterpartRole: counterpartRole,
				LastMessage:     m,
			}
			previews[counterpart] = p
			order = append(order, counterpart)
		}
		if m.RecipientID == userID && !m.IsRead {
			p.UnreadCount++
		}
	}

	out := make([]StaffConversationPreview, 0, len(order))
	for _, id := range order {
		p := previews[id]
		if u, err := s.users.GetByID(id); err == nil {
			p.CounterpartName = u.Name
		}
		out = append(out, *p)
	}
	return out, nil
}
