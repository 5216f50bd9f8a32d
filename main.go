package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/chat"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/config"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/controller"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/middleware"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/utils"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/ws"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	log.Printf("Opening SQLite database file %s", cfg.Database.File)
	db, err := gorm.Open(sqlite.Open(cfg.Database.File), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(entity.All()...); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	signer := utils.NewURLSigner(cfg.Attachments.SigningSecret, cfg.Attachments.BaseURL, cfg.SignedURLTTL())
	jwtTTL := time.Duration(cfg.JWT.ExpireHours) * time.Hour

	// services
	userSvc := service.NewUserService(db)
	sessionSvc := service.NewSessionService(db)
	studentAuthSvc := service.NewStudentAuthService(db, sessionSvc)
	studentDataSvc := service.NewStudentDataService(db, userSvc, signer)
	studentActionSvc := service.NewStudentActionService(db, userSvc)
	staffMsgSvc := service.NewStaffMessageService(db, userSvc)
	engine := chat.NewEngine(db)

	// ws hub (init before controllers needing it)
	hub := ws.NewHub(rdb)

	// controllers
	authCtrl := controller.NewAuthController(userSvc, cfg.JWT.Secret, jwtTTL)
	gatewayCtrl := controller.NewStudentGatewayController(studentAuthSvc, sessionSvc, studentDataSvc, studentActionSvc)
	convCtrl := controller.NewConversationController(engine, hub)
	staffMsgCtrl := controller.NewStaffMessageController(staffMsgSvc, hub)
	filesCtrl := controller.NewFilesController(signer, cfg.Attachments.Dir)

	r.POST("/signup", authCtrl.SignUp)
	r.POST("/login", authCtrl.Login)

	// student portal gateway: session-token auth, permissive CORS
	studentAPI := r.Group("/student-api")
	studentAPI.Use(middleware.CORSMiddleware())
	gatewayCtrl.Register(studentAPI)

	// staff API: JWT auth
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	protected.GET("/conversations", convCtrl.List)
	protected.POST("/conversations", convCtrl.Create)
	protected.GET("/conversations/:id/messages", convCtrl.History)
	protected.POST("/conversations/:id/messages", convCtrl.Send)
	protected.POST("/conversations/:id/read", convCtrl.MarkRead)
	protected.GET("/conversations/:id/typing", convCtrl.Typing)
	protected.PATCH("/messages/:id", convCtrl.Edit)
	protected.DELETE("/messages/:id", convCtrl.Delete)
	protected.GET("/staff-messages", staffMsgCtrl.Previews)
	protected.GET("/staff-messages/:otherUserID", staffMsgCtrl.ListConversation)
	protected.POST("/staff-messages", staffMsgCtrl.Send)
	protected.POST("/staff-messages/read", staffMsgCtrl.MarkRead)

	// signed attachment links
	r.GET("/files/*path", filesCtrl.Serve)

	// ws endpoint
	r.GET("/ws", func(c *gin.Context) {
		ws.ServeWS(hub, engine, staffMsgSvc, sessionSvc, cfg.JWT.Secret, c)
	})

	log.Printf("Starting server on %s", cfg.Server.Address)
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
