package service

import (
	"testing"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

func TestStaffMessageSendStampsRoles(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewStaffMessageService(db, users)
	teacher := seedUser(t, db, "A Teacher", entity.RoleTeacher)
	admin := seedUser(t, db, "The Admin", entity.RoleAdmin)

	msg, err := svc.Send(teacher.ID, admin.ID, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.SenderRole != entity.RoleTeacher || msg.RecipientRole != entity.RoleAdmin {
		t.Fatalf("unexpected role tags: %s -> %s", msg.SenderRole, msg.RecipientRole)
	}

	if _, err := svc.Send(teacher.ID, teacher.ID, "self"); err == nil {
		t.Fatal("expected send-to-self to fail")
	}
}

func TestStaffMessagePreviews(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewStaffMessageService(db, users)
	a := seedUser(t, db, "Alpha Teacher", entity.RoleTeacher)
	b := seedUser(t, db, "Beta Teacher", entity.RoleTeacher)
	admin := seedUser(t, db, "The Admin", entity.RoleAdmin)

	if _, err := svc.Send(b.ID, a.ID, "first from b"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(b.ID, a.ID, "second from b"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(a.ID, admin.ID, "to admin"); err != nil {
		t.Fatalf("send: %v", err)
	}

	previews, err := svc.Previews(a.ID)
	if err != nil {
		t.Fatalf("previews: %v", err)
	}
	if len(previews) != 2 {
		t.Fatalf("expected 2 derived conversations, got %d", len(previews))
	}

	byCounterpart := map[uint]StaffConversationPreview{}
	for _, p := range previews {
		byCounterpart[p.CounterpartID] = p
	}
	pb := byCounterpart[b.ID]
	if pb.UnreadCount != 2 {
		t.Fatalf("expected 2 unread from b, got %d", pb.UnreadCount)
	}
	if pb.LastMessage.Content != "second from b" {
		t.Fatalf("expected most recent message as preview, got %q", pb.LastMessage.Content)
	}
	if pb.CounterpartName != "Beta Teacher" {
		t.Fatalf("unexpected counterpart name %q", pb.CounterpartName)
	}
	// own outgoing messages are never counted unread
	pa := byCounterpart[admin.ID]
	if pa.UnreadCount != 0 {
		t.Fatalf("expected 0 unread for outgoing-only thread, got %d", pa.UnreadCount)
	}
}

func TestStaffMessageMarkRead(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewStaffMessageService(db, users)
	a := seedUser(t, db, "Alpha Teacher", entity.RoleTeacher)
	b := seedUser(t, db, "Beta Teacher", entity.RoleTeacher)

	msg, err := svc.Send(b.ID, a.ID, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// only the recipient may mark read
	updated, err := svc.MarkRead(b.ID, a.ID, []uint{msg.ID})
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no rows updated for wrong recipient, got %d", updated)
	}

	updated, err = svc.MarkRead(a.ID, b.ID, []uint{msg.ID})
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 row updated, got %d", updated)
	}

	previews, err := svc.Previews(a.ID)
	if err != nil {
		t.Fatalf("previews: %v", err)
	}
	if previews[0].UnreadCount != 0 {
		t.Fatalf("expected unread 0 after mark read, got %d", previews[0].UnreadCount)
	}
}

func TestStaffMessagePagination(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewStaffMessageService(db, users)
	a := seedUser(t, db, "Alpha Teacher", entity.RoleTeacher)
	b := seedUser(t, db, "Beta Teacher", entity.RoleTeacher)

	var ids []uint
	for i := 0; i < 5; i++ {
		msg, err := svc.Send(a.ID, b.ID, "msg")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		ids = append(ids, msg.ID)
	}

	page, err := svc.ListConversation(a.ID, b.ID, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[4] {
		t.Fatalf("expected newest-first page, got %+v", page)
	}

	older, err := svc.ListConversation(a.ID, b.ID, 10, page[1].ID)
	if err != nil {
		t.Fatalf("list older: %v", err)
	}
	if len(older) != 3 {
		t.Fatalf("expected 3 older messages, got %d", len(older))
	}
}
