package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stafflink/config"
	"stafflink/internal/auth"
	"stafflink/internal/handler"
	"stafflink/internal/models"
	"stafflink/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID map[uint]*models.User
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

type fakeConvs struct {
	members map[uint][]uint // conversation id -> user ids
}

func (f *fakeConvs) IsParticipant(conversationID, userID uint) (bool, error) {
	for _, id := range f.members[conversationID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConvs) OtherParticipantIDs(conversationID, excludeUserID uint) ([]uint, error) {
	var out []uint
	for _, id := range f.members[conversationID] {
		if id != excludeUserID {
			out = append(out, id)
		}
	}
	return out, nil
}

type memMessages struct {
	mu     sync.Mutex
	nextID uint
	unread int
}

func (m *memMessages) Create(msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	m.unread++
	return nil
}

func (m *memMessages) MarkConversationRead(conversationID, readerID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = 0
	return nil
}

func (m *memMessages) UnreadCountForUser(userID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread, nil
}

type nopPresence struct{}

func (nopPresence) SetOnline(userID uint, online bool) error { return nil }

type gatewayEnv struct {
	srv *httptest.Server
	cfg *config.JWTConfig
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.JWTConfig{
		AccessSecret:  "test-secret",
		RefreshSecret: "test-refresh",
		AccessExpiry:  time.Hour,
		RefreshExpiry: time.Hour,
		Issuer:        "stafflink-test",
	}
	users := &fakeUsers{byID: map[uint]*models.User{
		1: {ID: 1, Username: "alice", FirstName: "Alice", Role: "EMPLOYEE"},
		2: {ID: 2, Username: "bob", FirstName: "Bob", Role: "HR"},
		3: {ID: 3, Username: "mallory", Role: "CLIENT"},
	}}
	convs := &fakeConvs{members: map[uint][]uint{7: {1, 2}}}
	messages := &memMessages{}

	hub, err := ws.NewHub(ws.NewMemoryBroker())
	require.NoError(t, err)
	tracker := ws.NewPresenceTracker(nopPresence{}, hub)
	notifier := ws.NewNotifier(messages, hub)
	rooms := ws.NewRoomManager(messages, convs, notifier, hub)
	gateway := handler.NewWSGateway(cfg, hub, tracker, rooms, notifier, users, convs)

	r := gin.New()
	r.GET("/ws/presence", gateway.PresenceWS)
	r.GET("/ws/notifications", gateway.NotificationsWS)
	r.GET("/ws/chat/:conversation_id", gateway.ChatWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &gatewayEnv{srv: srv, cfg: cfg}
}

func (e *gatewayEnv) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + path
}

func (e *gatewayEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(e.cfg, userID, "u@example.com", "EMPLOYEE")
	require.NoError(t, err)
	return tok
}

func (e *gatewayEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestWSRejectsUnauthenticated(t *testing.T) {
	env := newGatewayEnv(t)
	for _, path := range []string{"/ws/presence", "/ws/notifications", "/ws/chat/7"} {
		_, resp, err := websocket.DefaultDialer.Dial(env.wsURL(path), nil)
		require.Error(t, err, path)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestChatWSRejectsNonParticipant(t *testing.T) {
	env := newGatewayEnv(t)
	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL("/ws/chat/7?token="+env.token(t, 3)), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Retrying does not help; membership is checked every time.
	_, resp, err = websocket.DefaultDialer.Dial(env.wsURL("/ws/chat/7?token="+env.token(t, 3)), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestChatWSDeliversBetweenParticipants(t *testing.T) {
	env := newGatewayEnv(t)
	alice := env.dial(t, "/ws/chat/7?token="+env.token(t, 1))
	bob := env.dial(t, "/ws/chat/7?token="+env.token(t, 2))
	time.Sleep(100 * time.Millisecond) // let both subscriptions land

	require.NoError(t, bob.WriteJSON(map[string]string{"message": "hi"}))

	ev := readEvent(t, alice)
	assert.Equal(t, "new_message", ev["type"])
	assert.Equal(t, "hi", ev["message"])
	assert.Equal(t, float64(2), ev["sender_id"])
	assert.Equal(t, "Bob", ev["sender_name"])
	assert.NotEmpty(t, ev["timestamp"])
}

func TestChatWSEmptyMessageRejectedToSenderOnly(t *testing.T) {
	env := newGatewayEnv(t)
	alice := env.dial(t, "/ws/chat/7?token="+env.token(t, 1))
	bob := env.dial(t, "/ws/chat/7?token="+env.token(t, 2))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, bob.WriteJSON(map[string]string{"message": "   "}))

	ev := readEvent(t, bob)
	assert.Equal(t, "error", ev["type"])

	// Alice gets the next real message, not the failed one.
	require.NoError(t, bob.WriteJSON(map[string]string{"message": "real"}))
	ev = readEvent(t, alice)
	assert.Equal(t, "new_message", ev["type"])
	assert.Equal(t, "real", ev["message"])
}

func TestNotificationsWSPushesInitialCount(t *testing.T) {
	env := newGatewayEnv(t)
	conn := env.dial(t, "/ws/notifications?token="+env.token(t, 1))

	ev := readEvent(t, conn)
	assert.Equal(t, "unread_count_init", ev["type"])
	assert.Equal(t, float64(0), ev["unread_count"])
}

func TestNotificationsWSReceivesFanOut(t *testing.T) {
	env := newGatewayEnv(t)
	aliceNotif := env.dial(t, "/ws/notifications?token="+env.token(t, 1))
	readEvent(t, aliceNotif) // unread_count_init

	bob := env.dial(t, "/ws/chat/7?token="+env.token(t, 2))
	require.NoError(t, bob.WriteJSON(map[string]string{"message": "lunch?"}))

	ev := readEvent(t, aliceNotif)
	assert.Equal(t, "chat_notification", ev["type"])
	assert.Equal(t, "Bob", ev["sender_name"])
	assert.Equal(t, "lunch?", ev["message_preview"])
	assert.Equal(t, float64(7), ev["conversation_id"])
	assert.Equal(t, float64(1), ev["unread_count"])
}

func TestPresenceWSBroadcastsConnections(t *testing.T) {
	env := newGatewayEnv(t)
	alice := env.dial(t, "/ws/presence?token="+env.token(t, 1))

	// Alice's own connect is the first status she sees.
	ev := readEvent(t, alice)
	assert.Equal(t, "status_update", ev["type"])
	assert.Equal(t, float64(1), ev["user_id"])
	assert.Equal(t, true, ev["is_online"])

	// Any topic counts toward presence, including notifications.
	bob := env.dial(t, "/ws/notifications?token="+env.token(t, 2))
	defer bob.Close()

	ev = readEvent(t, alice)
	assert.Equal(t, "status_update", ev["type"])
	assert.Equal(t, float64(2), ev["user_id"])
	assert.Equal(t, true, ev["is_online"])

	// Closing Bob's only connection flips him offline.
	bob.Close()
	ev = readEvent(t, alice)
	assert.Equal(t, "status_update", ev["type"])
	assert.Equal(t, float64(2), ev["user_id"])
	assert.Equal(t, false, ev["is_online"])
}
