package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/middleware"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/ws"
)

type StaffMessageController struct {
	svc service.StaffMessageService
	hub *ws.Hub
}

func NewStaffMessageController(svc service.StaffMessageService, hub *ws.Hub) *StaffMessageController {
	return &StaffMessageController{svc: svc, hub: hub}
}

// Previews returns the derived conversation list for the caller.
func (p *StaffMessageController) Previews(c *gin.Context) {
	previews, err := p.svc.Previews(middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": previews})
}

// ListConversation returns messages between the caller and the other user.
func (p *StaffMessageController) ListConversation(c *gin.Context) {
	other64, err := strconv.ParseUint(c.Param("otherUserID"), 10, 64)
	if err != nil || other64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	before64, _ := strconv.ParseUint(c.DefaultQuery("before", "0"), 10, 64)
	msgs, err := p.svc.ListConversation(middleware.UserID(c), uint(other64), limit, uint(before64))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type staffSendRequest struct {
	To      uint   `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (p *StaffMessageController) Send(c *gin.Context) {
	var req staffSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := p.svc.Send(middleware.UserID(c), req.To, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if p.hub != nil {
		evt := gin.H{"type": "staff_dm", "message": msg}
		p.hub.Publish(context.Background(), ws.TopicStaffDM(msg.RecipientID), evt)
		p.hub.Publish(context.Background(), ws.TopicStaffDM(msg.SenderID), evt)
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

type staffMarkReadRequest struct {
	User uint   `json:"user" binding:"required"`
	Ids  []uint `json:"ids" binding:"required"`
}

// MarkRead marks messages as read and emits read receipts on both parties'
// topics; each side recomputes its previews on receipt.
func (p *StaffMessageController) MarkRead(c *gin.Context) {
	var req staffMarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recipientID := middleware.UserID(c)
	updated, err := p.svc.MarkRead(recipientID, req.User, req.Ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	if updated > 0 && p.hub != nil {
		receipt := gin.H{
			"type": "staff_dm_read",
			"from": recipientID,
			"ids":  req.Ids,
			"ts":   time.Now().Unix(),
		}
		p.hub.Publish(context.Background(), ws.TopicStaffDM(req.User), receipt)
		p.hub.Publish(context.Background(), ws.TopicStaffDM(recipientID), receipt)
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
