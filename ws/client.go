package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/chat"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
	"github.com/ahmedy167-eng/learn-dash-audit-sub000/service"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity entity.Identity
	engine   *chat.Engine
	staffSvc service.StaffMessageService
	typing   *chat.TypingTracker
}

// envelope is the single inbound frame shape; Type selects the operation.
type envelope struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
	MessageID      uint   `json:"messageId"`
	Body           string `json:"body"`
	TempID         string `json:"tempId"`
	Typing         bool   `json:"typing"`
	To             uint   `json:"to"`
	Ids            []uint `json:"ids"`
}

func (c *Client) readPump() {
	defer func() {
		c.typing.Close()
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { _ = c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("ws: read error: %v", err)
			break
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("invalid_json")
			continue
		}
		c.handle(env)
	}
}

func (c *Client) handle(env envelope) {
	ctx := context.Background()
	switch env.Type {
	case "subscribe":
		if env.ConversationID == 0 {
			c.sendError("missing_fields")
			return
		}
		ok, err := c.engine.IsParticipant(env.ConversationID, c.identity)
		if err != nil || !ok {
			c.sendError("not_participant")
			return
		}
		c.hub.Subscribe(c, TopicConversationMessages(env.ConversationID))
		c.hub.Subscribe(c, TopicConversationTyping(env.ConversationID))

	case "unsubscribe":
		c.hub.Unsubscribe(c, TopicConversationMessages(env.ConversationID))
		c.hub.Unsubscribe(c, TopicConversationTyping(env.ConversationID))

	case "message":
		if env.ConversationID == 0 || env.Body == "" {
			c.sendError("missing_fields")
			return
		}
		msg, err := c.engine.SendMessage(c.identity, env.ConversationID, env.Body)
		if err != nil {
			c.sendError("send_failed")
			return
		}
		// writer's typing row is stale the moment the message lands
		_ = c.typing.Stop(env.ConversationID)
		// ack first so the sender can reconcile its optimistic append; the
		// topic echo below is deduplicated by message id
		c.sendJSON(map[string]interface{}{
			"type":    "message_ack",
			"tempId":  env.TempID,
			"message": msg,
		})
		c.hub.Publish(ctx, TopicConversationMessages(env.ConversationID), map[string]interface{}{
			"type":    "message_insert",
			"message": msg,
		})
		c.invalidateLists(ctx, env.ConversationID)

	case "edit":
		if env.MessageID == 0 || env.Body == "" {
			c.sendError("missing_fields")
			return
		}
		msg, err := c.engine.EditMessage(c.identity, env.MessageID, env.Body)
		if err != nil {
			c.sendError("edit_failed")
			return
		}
		c.hub.Publish(ctx, TopicConversationMessages(msg.ConversationID), map[string]interface{}{
			"type":    "message_update",
			"message": msg,
		})

	case "delete":
		if env.MessageID == 0 {
			c.sendError("missing_fields")
			return
		}
		msg, err := c.engine.DeleteMessage(c.identity, env.MessageID)
		if err != nil {
			c.sendError("delete_failed")
			return
		}
		// route the tombstone by the message's own conversation, not a
		// client-supplied id
		c.hub.Publish(ctx, TopicConversationMessages(msg.ConversationID), map[string]interface{}{
			"type":      "message_update",
			"messageId": msg.ID,
			"deleted":   true,
		})

	case "mark_read":
		if err := c.engine.MarkAsRead(c.identity, env.ConversationID); err != nil {
			c.sendError("mark_read_failed")
			return
		}
		c.hub.Publish(ctx, TopicUserConversations(c.identity), map[string]interface{}{
			"type":           "conversations_changed",
			"conversationId": env.ConversationID,
		})

	case "typing":
		if env.ConversationID == 0 {
			c.sendError("missing_fields")
			return
		}
		var err error
		if env.Typing {
			err = c.typing.Keystroke(env.ConversationID)
		} else {
			err = c.typing.Stop(env.ConversationID)
		}
		if err != nil {
			c.sendError("typing_failed")
			return
		}
		c.publishTyping(ctx, env.ConversationID)

	case "staff_dm":
		if c.identity.Kind != entity.IdentityUser {
			c.sendError("staff_only")
			return
		}
		if env.To == 0 || env.Body == "" {
			c.sendError("missing_fields")
			return
		}
		msg, err := c.staffSvc.Send(c.identity.ID, env.To, env.Body)
		if err != nil {
			c.sendError("send_failed")
			return
		}
		c.sendJSON(map[string]interface{}{
			"type":    "staff_dm_ack",
			"tempId":  env.TempID,
			"message": msg,
		})
		evt := map[string]interface{}{"type": "staff_dm", "message": msg}
		// incoming-to-recipient and outgoing-from-sender topics; each side
		// recomputes its previews in full on receipt
		c.hub.Publish(ctx, TopicStaffDM(msg.RecipientID), evt)
		c.hub.Publish(ctx, TopicStaffDM(msg.SenderID), evt)

	case "staff_dm_read":
		if c.identity.Kind != entity.IdentityUser {
			c.sendError("staff_only")
			return
		}
		if env.To == 0 || len(env.Ids) == 0 {
			c.sendError("missing_fields")
			return
		}
		updated, err := c.staffSvc.MarkRead(c.identity.ID, env.To, env.Ids)
		if err != nil {
			c.sendError("mark_read_failed")
			return
		}
		if updated > 0 {
			receipt := map[string]interface{}{
				"type": "staff_dm_read",
				"from": c.identity.ID,
				"ids":  env.Ids,
				"ts":   time.Now().Unix(),
			}
			c.hub.Publish(ctx, TopicStaffDM(env.To), receipt)
			c.hub.Publish(ctx, TopicStaffDM(c.identity.ID), receipt)
		}

	default:
		c.sendError("unsupported_type")
	}
}

// publishTyping pushes the recomputed live typing set for the conversation.
// Receivers filter out their own key before rendering.
func (c *Client) publishTyping(ctx context.Context, convID uint) {
	users, err := c.engine.TypingSet(convID)
	if err != nil {
		return
	}
	keys := make([]string, 0, len(users))
	for _, u := range users {
		keys = append(keys, u.Key())
	}
	c.hub.Publish(ctx, TopicConversationTyping(convID), map[string]interface{}{
		"type":           "typing",
		"conversationId": convID,
		"users":          keys,
	})
}

func (c *Client) invalidateLists(ctx context.Context, convID uint) {
	participants, err := c.engine.Participants(convID)
	if err != nil {
		return
	}
	for _, p := range participants {
		id, ok := p.Member.Identity()
		if !ok {
			continue
		}
		c.hub.Publish(ctx, TopicUserConversations(id), map[string]interface{}{
			"type":           "conversations_changed",
			"conversationId": convID,
		})
	}
}

func (c *Client) sendJSON(v interface{}) {
	if b, err := json.Marshal(v); err == nil {
		c.send <- b
	}
}

func (c *Client) sendError(code string) {
	c.sendJSON(map[string]string{"type": "error", "error": code})
}

func (c *Client) writePump() {
	ticker := time.NewTicker((pongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}
