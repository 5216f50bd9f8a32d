package ws

import (
	"fmt"

	"github.com/ahmedy167-eng/learn-dash-audit-sub000/entity"
)

// Topic layout:
//
//	conversation:<id>:messages  message insert/update events
//	conversation:<id>:typing    typing-indicator change events
//	user:<identity-key>:conversations  conversation-list invalidation
//	staffdm:<userID>            staff direct-message in/out/update events

func TopicConversationMessages(convID uint) string {
	return fmt.Sprintf("conversation:%d:messages", convID)
}

func TopicConversationTyping(convID uint) string {
	return fmt.Sprintf("conversation:%d:typing", convID)
}

func TopicUserConversations(id entity.Identity) string {
	return fmt.Sprintf("user:%s:conversations", id.Key())
}

func TopicStaffDM(userID uint) string {
	return fmt.Sprintf("staffdm:%d", userID)
}
