package ws

import (
	"encoding/json"
	"log"

	"stafflink/internal/domain"
)

// UnreadCounter recomputes a user's unread total from the store. Derived on
// demand so the badge count can never drift from the is_read flags.
type UnreadCounter interface {
	UnreadCountForUser(userID uint) (int, error)
}

// Notifier pushes toast-style events to a user's personal notification topic.
// Delivery is at-least-once per connected instance and silently dropped when
// nobody is listening; durable unread state lives in the store, not here.
type Notifier struct {
	counts UnreadCounter
	pub    Publisher
}

func NewNotifier(counts UnreadCounter, pub Publisher) *Notifier {
	return &Notifier{counts: counts, pub: pub}
}

// Notify fans one chat notification out to every connection on the user's
// notification topic, with a freshly computed unread count.
func (n *Notifier) Notify(userID uint, senderName, preview string, conversationID uint) {
	count, err := n.counts.UnreadCountForUser(userID)
	if err != nil {
		log.Printf("notifier: unread count for user %d: %v", userID, err)
		return
	}
	err = n.pub.Publish(NotificationTopic(userID), ChatNotificationEvent{
		Type:           domain.EventChatNotification,
		SenderName:     senderName,
		MessagePreview: preview,
		UnreadCount:    count,
		ConversationID: conversationID,
	})
	if err != nil {
		log.Printf("notifier: push to user %d: %v", userID, err)
	}
}

// PushInitialCount sends the unread_count_init event to one fresh
// notifications connection, so a client that was offline resynchronizes its
// badge without waiting for the next fan-out.
func (n *Notifier) PushInitialCount(c *Client) error {
	count, err := n.counts.UnreadCountForUser(c.UserID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(UnreadCountInitEvent{
		Type:        domain.EventUnreadCountInit,
		UnreadCount: count,
	})
	if err != nil {
		return err
	}
	if !c.trySend(data) {
		log.Printf("notifier: initial count dropped for connection %s", c.ConnID)
	}
	return nil
}
