package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

func seedQuizQuestion(t *testing.T, db *gorm.DB, sectionID uint, correct string) *entity.QuizQuestion {
	t.Helper()
	quiz := &entity.Quiz{SectionID: sectionID, Title: "Unit test quiz"}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	q := &entity.QuizQuestion{QuizID: quiz.ID, Prompt: "2+2?", OptionA: "3", OptionB: "4", CorrectAnswer: correct}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

func TestSubmitQuizServerSideGrading(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	student := seedStudent(t, db, "jane doe", "S100", 1, true)
	question := seedQuizQuestion(t, db, 1, "B")

	// client claims correctness for a wrong answer; the claim is ignored
	body := fmt.Sprintf(`{"question_id":%d,"selected_answer":"A","is_correct":true}`, question.ID)
	result, err := svc.Perform(student, "submit_quiz", json.RawMessage(body))
	if err != nil {
		t.Fatalf("submit_quiz: %v", err)
	}
	sub := result.(entity.QuizSubmission)
	if sub.IsCorrect {
		t.Fatal("expected wrong answer to grade incorrect regardless of client flag")
	}

	// and a right answer with a false claim still grades correct
	body = fmt.Sprintf(`{"question_id":%d,"selected_answer":"B","is_correct":false}`, question.ID)
	result, err = svc.Perform(student, "submit_quiz", json.RawMessage(body))
	if err != nil {
		t.Fatalf("submit_quiz: %v", err)
	}
	if !result.(entity.QuizSubmission).IsCorrect {
		t.Fatal("expected right answer to grade correct regardless of client flag")
	}
}

func TestSubmitQuizUnknownQuestion(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	student := seedStudent(t, db, "jane doe", "S100", 1, true)

	_, err := svc.Perform(student, "submit_quiz", json.RawMessage(`{"question_id":999,"selected_answer":"A"}`))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMessageRecipientAuthorization(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))

	sectionTeacher := seedUser(t, db, "Section Teacher", entity.RoleTeacher)
	otherTeacher := seedUser(t, db, "Other Teacher", entity.RoleTeacher)
	admin := seedUser(t, db, "The Admin", entity.RoleAdmin)
	section := seedSection(t, db, "5A", sectionTeacher.ID)
	student := seedStudent(t, db, "jane doe", "S100", section.ID, true)

	send := func(recipient *uint) (interface{}, error) {
		req := map[string]interface{}{"content": "hello"}
		if recipient != nil {
			req["recipient_user_id"] = *recipient
		}
		b, _ := json.Marshal(req)
		return svc.Perform(student, "send_message", b)
	}

	// unrelated teacher: fail closed, no row persisted
	if _, err := send(&otherTeacher.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unrelated teacher, got %v", err)
	}
	var cnt int64
	if err := db.Model(&entity.StudentMessage{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected no message row after 403, got %d", cnt)
	}

	// section teacher, admin, and the general admin inbox are all allowed
	if _, err := send(&sectionTeacher.ID); err != nil {
		t.Fatalf("section teacher send: %v", err)
	}
	if _, err := send(&admin.ID); err != nil {
		t.Fatalf("admin send: %v", err)
	}
	if _, err := send(nil); err != nil {
		t.Fatalf("general inbox send: %v", err)
	}
	if err := db.Model(&entity.StudentMessage{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 3 {
		t.Fatalf("expected 3 message rows, got %d", cnt)
	}
}

func TestSendMessageEmptyContent(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	student := seedStudent(t, db, "jane doe", "S100", 1, true)

	_, err := svc.Perform(student, "send_message", json.RawMessage(`{"content":"   "}`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for whitespace content, got %v", err)
	}
}

func TestMarkMessageReadOwnershipCheck(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	student := seedStudent(t, db, "jane doe", "S100", 1, true)
	other := seedStudent(t, db, "john roe", "S200", 1, true)
	sender := seedUser(t, db, "A Teacher", entity.RoleTeacher)

	msg := entity.StudentMessage{
		Sender:             entity.NewIdentityRef(entity.UserIdentity(sender.ID)),
		RecipientStudentID: &other.ID,
		Content:            "for someone else",
	}
	if err := db.Create(&msg).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}

	body := fmt.Sprintf(`{"message_id":%d}`, msg.ID)
	_, err := svc.Perform(student, "mark_message_read", json.RawMessage(body))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for another student's message, got %v", err)
	}
}

func TestMarkAllMessagesRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	student := seedStudent(t, db, "jane doe", "S100", 1, true)
	sender := seedUser(t, db, "A Teacher", entity.RoleTeacher)

	for i := 0; i < 3; i++ {
		msg := entity.StudentMessage{
			Sender:             entity.NewIdentityRef(entity.UserIdentity(sender.ID)),
			RecipientStudentID: &student.ID,
			Content:            "hello",
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	result, err := svc.Perform(student, "mark_all_messages_read", nil)
	if err != nil {
		t.Fatalf("mark_all_messages_read: %v", err)
	}
	updated := result.(map[string]interface{})["updated"].(int64)
	if updated != 3 {
		t.Fatalf("expected 3 updated, got %d", updated)
	}

	var unread int64
	if err := db.Model(&entity.StudentMessage{}).Where("is_read = ?", false).Count(&unread).Error; err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}

func TestUpdateCAOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	section := seedSection(t, db, "5A", 1)
	student := seedStudent(t, db, "jane doe", "S100", section.ID, true)
	other := seedStudent(t, db, "john roe", "S200", section.ID, true)

	project := entity.CAProject{SectionID: section.ID, Title: "Project"}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	sub := entity.CASubmission{ProjectID: project.ID, StudentID: other.ID, Content: "theirs"}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	body := fmt.Sprintf(`{"submission_id":%d,"content":"hijack"}`, sub.ID)
	_, err := svc.Perform(student, "update_ca", json.RawMessage(body))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUnknownAction(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentActionService(db, NewUserService(db))
	student := seedStudent(t, db, "jane doe", "S100", 1, true)

	_, err := svc.Perform(student, "drop_tables", nil)
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}
