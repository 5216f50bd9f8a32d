package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
)

// StudentGatewayController is the trust boundary for the student portal: one
// POST endpoint family, session-token authenticated, with every query and
// mutation scoped server-side to the session's student. Errors crossing it
// are always a plain {"error": string} body.
type StudentGatewayController struct {
	auth     *service.StudentAuthService
	sessions *service.SessionService
	data     *service.StudentDataService
	actions  *service.StudentActionService
}

func NewStudentGatewayController(auth *service.StudentAuthService, sessions *service.SessionService, data *service.StudentDataService, actions *service.StudentActionService) *StudentGatewayController {
	return &StudentGatewayController{auth: auth, sessions: sessions, data: data, actions: actions}
}

// Register mounts the endpoint family under base (e.g. /student-api).
func (g *StudentGatewayController) Register(base *gin.RouterGroup) {
	base.POST("/login", g.Login)
	base.POST("/logout", g.Logout)
	base.POST("/get-data", g.GetData)
	base.POST("/action", g.Action)
	base.POST("/get-teacher", g.GetTeacher)
	base.POST("/get-recipients", g.GetRecipients)
}

func (g *StudentGatewayController) Login(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		StudentID string `json:"studentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.StudentID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and student ID are required"})
		return
	}

	student, sess, err := g.auth.Login(req.Name, req.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAccountDeactivated):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			log.Printf("student-gateway: login query failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student":      student,
		"sessionToken": sess.Token,
		"sessionId":    sess.ID,
		"expiresAt":    sess.ExpiresAt,
	})
}

func (g *StudentGatewayController) Logout(c *gin.Context) {
	var req struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session token is required"})
		return
	}
	if err := g.auth.Logout(req.SessionToken); err != nil {
		log.Printf("student-gateway: logout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// sessionStudent validates the token (lazy expiry included) and resolves the
// owning student. Both failures surface as 401: an expired session is simply
// "not logged in".
func (g *StudentGatewayController) sessionStudent(c *gin.Context, token string) *entity.Student {
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return nil
	}
	sess, err := g.sessions.Validate(token)
	if err != nil {
		if errors.Is(err, service.ErrSessionInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		} else {
			log.Printf("student-gateway: session lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		}
		return nil
	}
	student, err := g.data.LoadStudent(sess.StudentID)
	if err != nil {
		log.Printf("student-gateway: student lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return nil
	}
	return student
}

func (g *StudentGatewayController) GetData(c *gin.Context) {
	var req struct {
		SessionToken string                 `json:"sessionToken"`
		DataType     string                 `json:"dataType"`
		Filters      map[string]interface{} `json:"filters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	student := g.sessionStudent(c, req.SessionToken)
	if student == nil {
		return
	}
	data, err := g.data.Fetch(student, req.DataType, req.Filters)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDataType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data type"})
			return
		}
		log.Printf("student-gateway: get-data %s failed: %v", req.DataType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (g *StudentGatewayController) Action(c *gin.Context) {
	var req struct {
		SessionToken string          `json:"sessionToken"`
		Action       string          `json:"action"`
		Data         json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	student := g.sessionStudent(c, req.SessionToken)
	if student == nil {
		return
	}
	result, err := g.actions.Perform(student, req.Action, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		case errors.Is(err, service.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		default:
			log.Printf("student-gateway: action %s failed: %v", req.Action, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "action failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (g *StudentGatewayController) GetTeacher(c *gin.Context) {
	var req struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	student := g.sessionStudent(c, req.SessionToken)
	if student == nil {
		return
	}
	teacher, err := g.data.SectionTeacher(student)
	if err != nil {
		log.Printf("student-gateway: get-teacher failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch teacher"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": teacher})
}

func (g *StudentGatewayController) GetRecipients(c *gin.Context) {
	var req struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	student := g.sessionStudent(c, req.SessionToken)
	if student == nil {
		return
	}
	recipients, err := g.data.Recipients(student)
	if err != nil {
		log.Printf("student-gateway: get-recipients failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recipients})
}
