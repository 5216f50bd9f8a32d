package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/chat"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/middleware"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/ws"
)

// ConversationController is the staff-side REST surface over the chat engine.
// Realtime events go out through the hub after each successful mutation.
type ConversationController struct {
	engine *chat.Engine
	hub    *ws.Hub
}

func NewConversationController(engine *chat.Engine, hub *ws.Hub) *ConversationController {
	return &ConversationController{engine: engine, hub: hub}
}

func (cc *ConversationController) self(c *gin.Context) entity.Identity {
	return entity.UserIdentity(middleware.UserID(c))
}

func (cc *ConversationController) List(c *gin.Context) {
	views, err := cc.engine.ListConversations(cc.self(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
	Kind           string   `json:"kind" binding:"required"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
}

func (cc *ConversationController) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	self := cc.self(c)
	conv, err := cc.engine.CreateConversation(self, req.ParticipantIDs, entity.ConversationKind(req.Kind), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, chat.ErrBadParticipants) || errors.Is(err, chat.ErrConversationTitle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}
	if cc.hub != nil {
		participants, err := cc.engine.Participants(conv.ID)
		if err == nil {
			for _, p := range participants {
				if id, ok := p.Member.Identity(); ok {
					cc.hub.Publish(context.Background(), ws.TopicUserConversations(id), gin.H{
						"type":           "conversations_changed",
						"conversationId": conv.ID,
					})
				}
			}
		}
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

func conversationID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return uint(id64), true
}

func (cc *ConversationController) History(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	before64, _ := strconv.ParseUint(c.DefaultQuery("before", "0"), 10, 64)
	msgs, err := cc.engine.History(cc.self(c), convID, limit, uint(before64))
	if err != nil {
		if errors.Is(err, chat.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (cc *ConversationController) Send(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	self := cc.self(c)
	msg, err := cc.engine.SendMessage(self, convID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, chat.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		}
		return
	}
	if cc.hub != nil {
		cc.hub.Publish(context.Background(), ws.TopicConversationMessages(convID), gin.H{
			"type":    "message_insert",
			"message": msg,
		})
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (cc *ConversationController) Edit(c *gin.Context) {
	msgID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || msgID64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := cc.engine.EditMessage(cc.self(c), uint(msgID64), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, chat.ErrNotMessageSender):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit message"})
		}
		return
	}
	if cc.hub != nil {
		cc.hub.Publish(context.Background(), ws.TopicConversationMessages(msg.ConversationID), gin.H{
			"type":    "message_update",
			"message": msg,
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (cc *ConversationController) Delete(c *gin.Context) {
	msgID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || msgID64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	msg, err := cc.engine.DeleteMessage(cc.self(c), uint(msgID64))
	if err != nil {
		if errors.Is(err, chat.ErrNotMessageSender) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}
	if cc.hub != nil {
		cc.hub.Publish(context.Background(), ws.TopicConversationMessages(msg.ConversationID), gin.H{
			"type":      "message_update",
			"messageId": msg.ID,
			"deleted":   true,
		})
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (cc *ConversationController) MarkRead(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	if err := cc.engine.MarkAsRead(cc.self(c), convID); err != nil {
		if errors.Is(err, chat.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (cc *ConversationController) Typing(c *gin.Context) {
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	users, err := cc.engine.TypingUsers(convID, cc.self(c))
	if err != nil {
		if errors.Is(err, chat.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch typing users"})
		return
	}
	keys := make([]string, 0, len(users))
	for _, u := range users {
		keys = append(keys, u.Key())
	}
	c.JSON(http.StatusOK, gin.H{"typing": keys})
}
