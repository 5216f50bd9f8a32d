package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/chat"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and authenticates either a staff user (JWT
// bearer header or ?token=) or a student (?session_token=, validated against
// the session store with lazy expiry).
func ServeWS(h *Hub, engine *chat.Engine, staffSvc service.StaffMessageService, sessions *service.SessionService, jwtSecret string, c *gin.Context) {
	identity, ok := authenticate(sessions, jwtSecret, c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		identity: identity,
		engine:   engine,
		staffSvc: staffSvc,
	}
	client.typing = chat.NewTypingTracker(engine, identity)

	h.RegisterClient(client)
	go client.Serve()
}

func authenticate(sessions *service.SessionService, jwtSecret string, c *gin.Context) (entity.Identity, bool) {
	if token := c.Query("session_token"); token != "" {
		sess, err := sessions.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return entity.Identity{}, false
		}
		return entity.StudentIdentity(sess.StudentID), true
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		auth := c.GetHeader("Authorization")
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return entity.Identity{}, false
	}
	claims, err := utils.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return entity.Identity{}, false
	}
	return entity.UserIdentity(claims.UserID), true
}
