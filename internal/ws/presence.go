package ws

import (
	"log"
	"sync"

	"stafflink/internal/domain"
)

// PresenceStore persists the per-user online flag.
type PresenceStore interface {
	SetOnline(userID uint, online bool) error
}

// Publisher is the slice of Hub the presence tracker and notifier need.
type Publisher interface {
	Publish(topic string, event interface{}) error
}

// PresenceTracker reference-counts live connections per user. Only the 0→1
// and 1→0 transitions touch the store and the presence topic, so a user with
// several tabs open stays online until the last one drops. State changes for
// one user are serialized on that user's entry, not on a tracker-wide lock.
type PresenceTracker struct {
	store PresenceStore
	pub   Publisher

	mu      sync.Mutex
	entries map[uint]*presenceEntry
}

type presenceEntry struct {
	mu    sync.Mutex
	count int
}

func NewPresenceTracker(store PresenceStore, pub Publisher) *PresenceTracker {
	return &PresenceTracker{
		store:   store,
		pub:     pub,
		entries: make(map[uint]*presenceEntry),
	}
}

func (t *PresenceTracker) entry(userID uint) *presenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[userID]
	if e == nil {
		e = &presenceEntry{}
		t.entries[userID] = e
	}
	return e
}

// Connect registers one more live connection for the user. On the first one
// the persisted flag flips online and a status_update goes out.
func (t *PresenceTracker) Connect(userID uint) {
	e := t.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count++
	if e.count == 1 {
		t.announce(userID, true)
	}
}

// Disconnect drops one connection. When the last one goes the flag flips
// offline. Presence failures are best effort and never reach the caller.
func (t *PresenceTracker) Disconnect(userID uint) {
	e := t.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.count == 0 {
		return
	}
	e.count--
	if e.count == 0 {
		t.announce(userID, false)
	}
}

// LiveConnections reports the current refcount for a user.
func (t *PresenceTracker) LiveConnections(userID uint) int {
	e := t.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

func (t *PresenceTracker) announce(userID uint, online bool) {
	if err := t.store.SetOnline(userID, online); err != nil {
		log.Printf("presence: persist user %d online=%v: %v", userID, online, err)
	}
	err := t.pub.Publish(domain.TopicPresence, StatusUpdateEvent{
		Type:     domain.EventStatusUpdate,
		UserID:   userID,
		IsOnline: online,
	})
	if err != nil {
		log.Printf("presence: broadcast user %d online=%v: %v", userID, online, err)
	}
}
