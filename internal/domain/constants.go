package domain

const (
	RoleHR       = "HR"
	RoleEmployee = "EMPLOYEE"
	RoleClient   = "CLIENT"
)

// WebSocket topics. Room and notification topics carry the conversation id /
// user id after the prefix.
const (
	TopicPresence           = "presence"
	TopicRoomPrefix         = "room:"
	TopicNotificationPrefix = "notifications:"
)

// Event type discriminators sent to clients.
const (
	EventStatusUpdate     = "status_update"
	EventNewMessage       = "new_message"
	EventChatNotification = "chat_notification"
	EventUnreadCountInit  = "unread_count_init"
)

// PreviewRuneLimit caps the notification message preview length.
const PreviewRuneLimit = 50
