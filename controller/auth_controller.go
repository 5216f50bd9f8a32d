package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/utils"
)

// AuthController covers staff (teacher/admin) signup and login. Student
// authentication lives in the student gateway.
type AuthController struct {
	svc       service.UserService
	jwtSecret string
	jwtTTL    time.Duration
}

func NewAuthController(svc service.UserService, jwtSecret string, jwtTTL time.Duration) *AuthController {
	return &AuthController{svc: svc, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

func (a *AuthController) SignUp(c *gin.Context) {
	var req entity.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := a.svc.CreateUser(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "email": u.Email, "role": u.Role})
}

func (a *AuthController) Login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := a.svc.Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, err := utils.GenerateToken(a.jwtSecret, u.ID, u.Role, a.jwtTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}
