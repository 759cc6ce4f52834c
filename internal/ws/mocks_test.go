package ws_test

import (
	"sync"

	"stafflink/internal/models"
)

// capturePublisher records every published event in call order.
type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	topic string
	event interface{}
}

func (p *capturePublisher) Publish(topic string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (p *capturePublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *capturePublisher) onTopic(topic string) []publishedEvent {
	var out []publishedEvent
	for _, e := range p.all() {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// fakeChatStore backs MessageStore, ParticipantStore and UnreadCounter with
// in-memory state so unread counts derive from the same messages the rooms
// persist, the way the real store behaves.
type fakeChatStore struct {
	mu           sync.Mutex
	nextID       uint
	messages     []*models.Message
	participants map[uint][]uint // conversation id -> member user ids
	createErr    error
	blocked      map[uint]chan struct{} // conversation id -> release signal
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		participants: make(map[uint][]uint),
		blocked:      make(map[uint]chan struct{}),
	}
}

func (s *fakeChatStore) setParticipants(conversationID uint, userIDs ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[conversationID] = userIDs
}

// blockConversation makes Create stall for one conversation until the
// returned function is called.
func (s *fakeChatStore) blockConversation(conversationID uint) func() {
	release := make(chan struct{})
	s.mu.Lock()
	s.blocked[conversationID] = release
	s.mu.Unlock()
	return func() { close(release) }
}

func (s *fakeChatStore) Create(m *models.Message) error {
	s.mu.Lock()
	release := s.blocked[m.ConversationID]
	s.mu.Unlock()
	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	m.ID = s.nextID
	stored := *m
	s.messages = append(s.messages, &stored)
	return nil
}

func (s *fakeChatStore) MarkConversationRead(conversationID, readerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ConversationID == conversationID && (m.SenderID == nil || *m.SenderID != readerID) {
			m.IsRead = true
		}
	}
	return nil
}

func (s *fakeChatStore) UnreadCountForUser(userID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.IsRead {
			continue
		}
		if m.SenderID != nil && *m.SenderID == userID {
			continue
		}
		for _, member := range s.participants[m.ConversationID] {
			if member == userID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *fakeChatStore) OtherParticipantIDs(conversationID, excludeUserID uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint
	for _, id := range s.participants[conversationID] {
		if id != excludeUserID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeChatStore) storedMessages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// fakePresenceStore logs SetOnline transitions in order.
type fakePresenceStore struct {
	mu    sync.Mutex
	calls []presenceCall
}

type presenceCall struct {
	userID uint
	online bool
}

func (s *fakePresenceStore) SetOnline(userID uint, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, presenceCall{userID: userID, online: online})
	return nil
}

func (s *fakePresenceStore) transitions(userID uint) []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []bool
	for _, c := range s.calls {
		if c.userID == userID {
			out = append(out, c.online)
		}
	}
	return out
}
