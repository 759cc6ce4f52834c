package ws

import (
	"stafflink/internal/domain"
	"strconv"
)

// StatusUpdateEvent is broadcast on the presence topic when a user's online
// flag changes.
type StatusUpdateEvent struct {
	Type     string `json:"type"`
	UserID   uint   `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

// NewMessageEvent is broadcast to a room's subscribers after the message has
// been persisted.
type NewMessageEvent struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	SenderID   uint   `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Timestamp  string `json:"timestamp"`
}

// ChatNotificationEvent is the toast-style push delivered to a participant's
// notification topic. Best effort: dropped when no connection is listening.
type ChatNotificationEvent struct {
	Type           string `json:"type"`
	SenderName     string `json:"sender_name"`
	MessagePreview string `json:"message_preview"`
	UnreadCount    int    `json:"unread_count"`
	ConversationID uint   `json:"conversation_id"`
}

// UnreadCountInitEvent resynchronizes the badge count on every fresh
// notifications connection.
type UnreadCountInitEvent struct {
	Type        string `json:"type"`
	UnreadCount int    `json:"unread_count"`
}

// RoomTopic names the broadcast topic of one conversation.
func RoomTopic(conversationID uint) string {
	return domain.TopicRoomPrefix + strconv.FormatUint(uint64(conversationID), 10)
}

// NotificationTopic names a user's personal notification topic.
func NotificationTopic(userID uint) string {
	return domain.TopicNotificationPrefix + strconv.FormatUint(uint64(userID), 10)
}
