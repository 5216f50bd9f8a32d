package chat

import (
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

var (
	ErrEmptyContent      = errors.New("message content is empty")
	ErrBadParticipants   = errors.New("invalid participant list")
	ErrNotParticipant    = errors.New("not a participant of this conversation")
	ErrNotMessageSender  = errors.New("not the sender of this message")
	ErrConversationTitle = errors.New("group conversations require a title")
)

// TypingStaleness is the reader-side filter: rows older than this are treated
// as gone even if the writer never cleaned up. See TypingTracker for the
// writer-side half.
const TypingStaleness = 5 * time.Second

// Engine implements conversation discovery, message history, send/edit/delete,
// read tracking and typing indicators on top of the row store. Realtime
// fan-out happens at the caller (ws layer), not here.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// ConversationView is one conversation as listed for a caller.
type ConversationView struct {
	Conversation entity.Conversation  `json:"conversation"`
	Participants []entity.Participant `json:"participants"`
	LastMessage  *entity.Message      `json:"last_message"`
	UnreadCount  int64                `json:"unread_count"`
}

func memberWhere(db *gorm.DB, column string, id entity.Identity) *gorm.DB {
	if id.Kind == entity.IdentityStudent {
		return db.Where(column+"_student_id = ?", id.ID)
	}
	return db.Where(column+"_user_id = ?", id.ID)
}

// ListConversations queries the caller's memberships and hydrates each
// conversation. If the join path fails, it degrades to a flat listing that is
// still scoped by the same membership predicate, so a store hiccup costs
// detail (participants, unread counts) but never broadens visibility.
func (e *Engine) ListConversations(self entity.Identity) ([]ConversationView, error) {
	views, err := e.listWithDetail(self)
	if err == nil {
		return views, nil
	}
	log.Printf("chat: conversation join path failed, using fallback listing: %v", err)

	var convs []entity.Conversation
	fallbackErr := memberWhere(e.db.Model(&entity.Conversation{}), "participants.member", self).
		Joins("JOIN participants ON participants.conversation_id = conversations.id AND participants.active = ?", true).
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	if fallbackErr != nil {
		return nil, err
	}
	out := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationView{Conversation: c})
	}
	return out, nil
}

func (e *Engine) listWithDetail(self entity.Identity) ([]ConversationView, error) {
	var memberships []entity.Participant
	err := memberWhere(e.db.Where("active = ?", true), "member", self).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []ConversationView{}, nil
	}

	ids := make([]uint, 0, len(memberships))
	lastRead := make(map[uint]*time.Time, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ConversationID)
		lastRead[m.ConversationID] = m.LastReadAt
	}

	var convs []entity.Conversation
	if err := e.db.Where("id IN (?)", ids).Order("updated_at DESC").Find(&convs).Error; err != nil {
		return nil, err
	}
	var participants []entity.Participant
	if err := e.db.Where("conversation_id IN (?) AND active = ?", ids, true).Find(&participants).Error; err != nil {
		return nil, err
	}
	byConv := make(map[uint][]entity.Participant)
	for _, p := range participants {
		byConv[p.ConversationID] = append(byConv[p.ConversationID], p)
	}

	views := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		v := ConversationView{Conversation: c, Participants: byConv[c.ID]}

		var last entity.Message
		err := e.db.Where("conversation_id = ?", c.ID).Order("created_at DESC").First(&last).Error
		switch {
		case err == nil:
			v.LastMessage = &last
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}

		count, err := e.unreadCount(c.ID, self, lastRead[c.ID])
		if err != nil {
			return nil, err
		}
		v.UnreadCount = count
		views = append(views, v)
	}
	return views, nil
}

func (e *Engine) unreadCount(convID uint, self entity.Identity, lastRead *time.Time) (int64, error) {
	q := e.db.Model(&entity.Message{}).Where("conversation_id = ?", convID)
	// own messages are never unread
	if self.Kind == entity.IdentityStudent {
		q = q.Where("sender_student_id IS NULL OR sender_student_id <> ?", self.ID)
	} else {
		q = q.Where("sender_user_id IS NULL OR sender_user_id <> ?", self.ID)
	}
	if lastRead != nil {
		q = q.Where("created_at > ?", *lastRead)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// CreateConversation inserts the conversation and its participant batch in a
// single transaction: they appear together or not at all. Participant ids
// arrive prefixed ("user-<id>" / "student-<id>"); the creator is added as
// admin whether or not it appears in the list.
func (e *Engine) CreateConversation(creator entity.Identity, prefixedIDs []string, kind entity.ConversationKind, title, description string) (*entity.Conversation, error) {
	members := map[entity.Identity]bool{creator: true}
	for _, raw := range prefixedIDs {
		id, err := entity.ParseIdentity(raw)
		if err != nil {
			return nil, ErrBadParticipants
		}
		members[id] = true
	}

	switch kind {
	case entity.ConversationDirect:
		if len(members) != 2 {
			return nil, ErrBadParticipants
		}
	case entity.ConversationGroup:
		if len(members) < 2 {
			return nil, ErrBadParticipants
		}
		if strings.TrimSpace(title) == "" {
			return nil, ErrConversationTitle
		}
	default:
		return nil, ErrBadParticipants
	}

	conv := &entity.Conversation{
		Kind:        kind,
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedBy:   entity.NewIdentityRef(creator),
	}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		now := time.Now()
		batch := make([]entity.Participant, 0, len(members))
		for member := range members {
			role := entity.ParticipantMember
			if member == creator {
				role = entity.ParticipantAdmin
			}
			batch = append(batch, entity.Participant{
				ConversationID: conv.ID,
				Member:         entity.NewIdentityRef(member),
				Role:           role,
				JoinedAt:       now,
				Active:         true,
			})
		}
		return tx.Create(&batch).Error
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Participants lists a conversation's active participants; the ws layer uses
// this to invalidate each member's conversation list.
func (e *Engine) Participants(convID uint) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := e.db.Where("conversation_id = ? AND active = ?", convID, true).
		Find(&participants).Error
	return participants, err
}

func (e *Engine) isParticipant(convID uint, id entity.Identity) (bool, error) {
	var cnt int64
	err := memberWhere(e.db.Model(&entity.Participant{}), "member", id).
		Where("conversation_id = ? AND active = ?", convID, true).
		Count(&cnt).Error
	return cnt > 0, err
}

// IsParticipant reports whether the identity is an active participant; the ws
// layer gates topic subscriptions on it.
func (e *Engine) IsParticipant(convID uint, id entity.Identity) (bool, error) {
	return e.isParticipant(convID, id)
}

// SendMessage persists a message from an active participant. Content must be
// non-empty after trimming.
func (e *Engine) SendMessage(sender entity.Identity, convID uint, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	ok, err := e.isParticipant(convID, sender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	msg := &entity.Message{
		ConversationID: convID,
		Sender:         entity.NewIdentityRef(sender),
		Content:        content,
	}
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Conversation{}).
			Where("id = ?", convID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (e *Engine) ownMessage(sender entity.Identity, msgID uint) (*entity.Message, error) {
	var msg entity.Message
	err := memberWhere(e.db, "sender", sender).Where("id = ?", msgID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMessageSender
		}
		return nil, err
	}
	return &msg, nil
}

// EditMessage rewrites content and stamps edited_at; only the sender may edit.
func (e *Engine) EditMessage(sender entity.Identity, msgID uint, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	msg, err := e.ownMessage(sender, msgID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	updates := map[string]interface{}{"content": content, "edited_at": &now}
	if err := e.db.Model(msg).Updates(updates).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteMessage marks a tombstone; the row stays behind but is excluded from
// every read path. The deleted message is returned so callers route the
// tombstone event to its real conversation rather than a client-supplied id.
func (e *Engine) DeleteMessage(sender entity.Identity, msgID uint) (*entity.Message, error) {
	msg, err := e.ownMessage(sender, msgID)
	if err != nil {
		return nil, err
	}
	if err := e.db.Delete(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns one page of non-deleted messages in ascending order, to
// active participants only. Pages are keyed by message id: with beforeID > 0
// it backfills the page preceding that message, for splicing in front of the
// loaded window.
func (e *Engine) History(self entity.Identity, convID uint, limit int, beforeID uint) ([]entity.Message, error) {
	ok, err := e.isParticipant(convID, self)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var msgs []entity.Message
	q := e.db.Where("conversation_id = ?", convID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	// newest-first page, rendered ascending
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkAsRead stamps the caller's participant row. Used both on conversation
// open and reactively when a realtime insert lands for the open conversation.
func (e *Engine) MarkAsRead(self entity.Identity, convID uint) error {
	now := time.Now()
	res := memberWhere(e.db.Model(&entity.Participant{}), "member", self).
		Where("conversation_id = ?", convID).
		Update("last_read_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	return nil
}

// SetTyping inserts (typing=true) or removes (typing=false) the caller's own
// typing row; only active participants may write one. A fresh insert replaces
// the previous row so created_at always reflects the latest keystroke.
func (e *Engine) SetTyping(self entity.Identity, convID uint, typing bool) error {
	ok, err := e.isParticipant(convID, self)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	del := memberWhere(e.db.Where("conversation_id = ?", convID), "member", self).
		Delete(&entity.TypingIndicator{})
	if del.Error != nil {
		return del.Error
	}
	if !typing {
		return nil
	}
	row := entity.TypingIndicator{
		ConversationID: convID,
		Member:         entity.NewIdentityRef(self),
		CreatedAt:      time.Now(),
	}
	return e.db.Create(&row).Error
}

// TypingSet re-queries the live typing set, dropping rows older than the
// staleness window. Re-query on every change event keeps the logic trivially
// correct at the cost of extra reads. The ws layer broadcasts this set whole;
// receivers filter out their own key.
func (e *Engine) TypingSet(convID uint) ([]entity.Identity, error) {
	cutoff := time.Now().Add(-TypingStaleness)
	var rows []entity.TypingIndicator
	err := e.db.
		Where("conversation_id = ? AND created_at > ?", convID, cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.Identity, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.Member.Identity(); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// TypingUsers is the participant-facing view: the live typing set minus the
// caller's own row. Non-participants are rejected.
func (e *Engine) TypingUsers(convID uint, self entity.Identity) ([]entity.Identity, error) {
	ok, err := e.isParticipant(convID, self)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	all, err := e.TypingSet(convID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Identity, 0, len(all))
	for _, id := range all {
		if id != self {
			out = append(out, id)
		}
	}
	return out, nil
}
