package ws

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"stafflink/internal/domain"
	"stafflink/internal/models"
)

var (
	// ErrEmptyMessage rejects blank sends before anything is persisted or
	// broadcast.
	ErrEmptyMessage = errors.New("message is empty")
)

// MessageStore is what a room needs from persistence.
type MessageStore interface {
	Create(m *models.Message) error
	MarkConversationRead(conversationID, readerID uint) error
}

// ParticipantStore answers who else is in a conversation.
type ParticipantStore interface {
	OtherParticipantIDs(conversationID, excludeUserID uint) ([]uint, error)
}

// RoomManager owns the per-conversation serialization boundary. Each
// conversation gets its own lock, so two rooms never contend with each other
// while one room's persist+broadcast sequence stays atomic with respect to
// concurrent senders.
type RoomManager struct {
	messages     MessageStore
	participants ParticipantStore
	notifier     *Notifier
	pub          Publisher

	mu    sync.Mutex
	rooms map[uint]*room
}

type room struct {
	mu sync.Mutex
}

func NewRoomManager(messages MessageStore, participants ParticipantStore, notifier *Notifier, pub Publisher) *RoomManager {
	return &RoomManager{
		messages:     messages,
		participants: participants,
		notifier:     notifier,
		pub:          pub,
		rooms:        make(map[uint]*room),
	}
}

func (rm *RoomManager) room(conversationID uint) *room {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	r := rm.rooms[conversationID]
	if r == nil {
		r = &room{}
		rm.rooms[conversationID] = r
	}
	return r
}

// Send persists the message and broadcasts it to the room's topic, in that
// order, under the room lock. A persistence failure is returned to the sender
// and nothing is broadcast. After the room broadcast, every other participant
// gets a notification push; those are best effort and happen outside the
// lock, since no ordering is promised between a room event and its derived
// notification.
func (rm *RoomManager) Send(senderID uint, senderName string, conversationID uint, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}

	r := rm.room(conversationID)
	r.mu.Lock()
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       &senderID,
		Content:        content,
		Timestamp:      time.Now(),
	}
	if err := rm.messages.Create(msg); err != nil {
		r.mu.Unlock()
		return err
	}
	err := rm.pub.Publish(RoomTopic(conversationID), NewMessageEvent{
		Type:       domain.EventNewMessage,
		Message:    msg.Content,
		SenderID:   senderID,
		SenderName: senderName,
		Timestamp:  msg.Timestamp.Format("15:04"),
	})
	r.mu.Unlock()
	if err != nil {
		log.Printf("room %d: broadcast: %v", conversationID, err)
	}

	others, err := rm.participants.OtherParticipantIDs(conversationID, senderID)
	if err != nil {
		log.Printf("room %d: participants lookup: %v", conversationID, err)
		return nil
	}
	for _, userID := range others {
		rm.notifier.Notify(userID, senderName, Preview(content), conversationID)
	}
	return nil
}

// MarkRead flips every unread message in the conversation not sent by the
// reader. Idempotent: a second call is a no-op.
func (rm *RoomManager) MarkRead(readerID, conversationID uint) error {
	return rm.messages.MarkConversationRead(conversationID, readerID)
}

// Preview truncates content for notification payloads, appending an ellipsis
// marker past the cap. Counted in runes so multibyte text does not split.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= domain.PreviewRuneLimit {
		return content
	}
	return string(runes[:domain.PreviewRuneLimit]) + "..."
}
