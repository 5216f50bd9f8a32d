package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/middleware"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/utils"
)

func newGatewayRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	sessions := service.NewSessionService(db)
	auth := service.NewStudentAuthService(db, sessions)
	users := service.NewUserService(db)
	signer := utils.NewURLSigner("test-secret", "http://localhost:8080", 4*time.Hour)
	data := service.NewStudentDataService(db, users, signer)
	actions := service.NewStudentActionService(db, users)

	ctrl := NewStudentGatewayController(auth, sessions, data, actions)
	r := gin.New()
	api := r.Group("/student-api")
	api.Use(middleware.CORSMiddleware())
	ctrl.Register(api)
	return r, db
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func seedGatewayStudent(t *testing.T, db *gorm.DB, active bool) *entity.Student {
	t.Helper()
	teacher := entity.User{Name: "Section Teacher", Email: fmt.Sprintf("t-%s@school.test", t.Name()), PasswordHash: "x", Role: entity.RoleTeacher, Active: true}
	if err := db.Create(&teacher).Error; err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	section := entity.Section{Name: "5A", TeacherID: teacher.ID}
	if err := db.Create(&section).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	student := entity.Student{FullName: "jane doe", StudentCode: "S100", SectionID: section.ID, Active: active}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return &student
}

func TestGatewayLoginFlow(t *testing.T) {
	r, db := newGatewayRouter(t)
	seedGatewayStudent(t, db, true)

	w := postJSON(t, r, "/student-api/login", gin.H{"name": "Jane Doe", "studentId": "S100"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	token, _ := body["sessionToken"].(string)
	if len(token) != 72 {
		t.Fatalf("expected 72-char session token, got %q", token)
	}

	// the token authenticates further calls
	w = postJSON(t, r, "/student-api/get-data", gin.H{"sessionToken": token, "dataType": "notices"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// logout invalidates it
	w = postJSON(t, r, "/student-api/logout", gin.H{"sessionToken": token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = postJSON(t, r, "/student-api/get-data", gin.H{"sessionToken": token, "dataType": "notices"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGatewayLoginErrors(t *testing.T) {
	r, db := newGatewayRouter(t)
	seedGatewayStudent(t, db, true)

	w := postJSON(t, r, "/student-api/login", gin.H{"name": "", "studentId": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Name and student ID are required" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	w = postJSON(t, r, "/student-api/login", gin.H{"name": "jane doe", "studentId": "S999"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Invalid name or student ID" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGatewayLoginDeactivated(t *testing.T) {
	r, db := newGatewayRouter(t)
	seedGatewayStudent(t, db, false)

	w := postJSON(t, r, "/student-api/login", gin.H{"name": "jane doe", "studentId": "S100"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated account, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Your account has been deactivated" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGatewayInvalidDataTypeAndAction(t *testing.T) {
	r, db := newGatewayRouter(t)
	seedGatewayStudent(t, db, true)

	w := postJSON(t, r, "/student-api/login", gin.H{"name": "jane doe", "studentId": "S100"})
	token := decodeBody(t, w)["sessionToken"].(string)

	w = postJSON(t, r, "/student-api/get-data", gin.H{"sessionToken": token, "dataType": "users"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown data type, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Invalid data type" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	w = postJSON(t, r, "/student-api/action", gin.H{"sessionToken": token, "action": "drop_tables"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Invalid action" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGatewayActionErrorMapping(t *testing.T) {
	r, db := newGatewayRouter(t)
	student := seedGatewayStudent(t, db, true)

	w := postJSON(t, r, "/student-api/login", gin.H{"name": "jane doe", "studentId": "S100"})
	token := decodeBody(t, w)["sessionToken"].(string)

	// recipient outside the allowed set maps to 403
	stranger := entity.User{Name: "Other Teacher", Email: "other@school.test", PasswordHash: "x", Role: entity.RoleTeacher, Active: true}
	if err := db.Create(&stranger).Error; err != nil {
		t.Fatalf("seed stranger: %v", err)
	}
	w = postJSON(t, r, "/student-api/action", gin.H{
		"sessionToken": token,
		"action":       "send_message",
		"data":         gin.H{"content": "hi", "recipient_user_id": stranger.ID},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unauthorized recipient, got %d: %s", w.Code, w.Body.String())
	}

	// unknown quiz question maps to 404
	w = postJSON(t, r, "/student-api/action", gin.H{
		"sessionToken": token,
		"action":       "submit_quiz",
		"data":         gin.H{"question_id": 999, "selected_answer": "A"},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d: %s", w.Code, w.Body.String())
	}
	_ = student
}

func TestGatewayGetTeacherAndRecipients(t *testing.T) {
	r, db := newGatewayRouter(t)
	seedGatewayStudent(t, db, true)

	w := postJSON(t, r, "/student-api/login", gin.H{"name": "jane doe", "studentId": "S100"})
	token := decodeBody(t, w)["sessionToken"].(string)

	w = postJSON(t, r, "/student-api/get-teacher", gin.H{"sessionToken": token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	teacher := decodeBody(t, w)["data"].(map[string]interface{})
	if teacher["name"] != "Section Teacher" {
		t.Fatalf("unexpected teacher payload: %s", w.Body.String())
	}

	w = postJSON(t, r, "/student-api/get-recipients", gin.H{"sessionToken": token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	recipients := decodeBody(t, w)["data"].([]interface{})
	first := recipients[0].(map[string]interface{})
	if first["role"] != "general_admin" {
		t.Fatalf("expected general_admin first, got %s", w.Body.String())
	}
}

func TestGatewayCORSPreflight(t *testing.T) {
	r, _ := newGatewayRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/student-api/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header: %+v", w.Header())
	}
}
