package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"stafflink/config"
	"stafflink/internal/auth"
	"stafflink/internal/domain"
	"stafflink/internal/models"
	"stafflink/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UserFetcher resolves the authenticated id to a user record.
type UserFetcher interface {
	GetByID(id uint) (*models.User, error)
}

// ParticipantChecker answers the room membership question. Checked on every
// (re)connection attempt; never cached across connections.
type ParticipantChecker interface {
	IsParticipant(conversationID, userID uint) (bool, error)
}

// WSGateway accepts WebSocket connections, authenticates them and dispatches
// each to its topic: the global presence feed, one conversation's room, or
// the caller's own notification stream.
type WSGateway struct {
	cfg      *config.JWTConfig
	hub      *ws.Hub
	tracker  *ws.PresenceTracker
	rooms    *ws.RoomManager
	notifier *ws.Notifier
	users    UserFetcher
	convs    ParticipantChecker
}

func NewWSGateway(cfg *config.JWTConfig, hub *ws.Hub, tracker *ws.PresenceTracker, rooms *ws.RoomManager, notifier *ws.Notifier, users UserFetcher, convs ParticipantChecker) *WSGateway {
	return &WSGateway{cfg: cfg, hub: hub, tracker: tracker, rooms: rooms, notifier: notifier, users: users, convs: convs}
}

// authenticate resolves the token query parameter to a user, rejecting the
// request before any upgrade happens.
func (g *WSGateway) authenticate(c *gin.Context) *models.User {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return nil
	}
	claims, err := auth.ParseAccessToken(g.cfg, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil
	}
	u, err := g.users.GetByID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil
	}
	return u
}

// PresenceWS subscribes the connection to the global presence topic. The
// connection itself also counts toward its owner's presence.
func (g *WSGateway) PresenceWS(c *gin.Context) {
	u := g.authenticate(c)
	if u == nil {
		return
	}
	g.serve(c, u, domain.TopicPresence, nil)
}

// NotificationsWS subscribes the connection to the caller's own notification
// topic and pushes the initial unread count.
func (g *WSGateway) NotificationsWS(c *gin.Context) {
	u := g.authenticate(c)
	if u == nil {
		return
	}
	g.serve(c, u, ws.NotificationTopic(u.ID), func(client *ws.Client) {
		if err := g.notifier.PushInitialCount(client); err != nil {
			log.Printf("ws: initial unread count for user %d: %v", u.ID, err)
		}
	})
}

// ChatWS joins one conversation's room after re-verifying membership.
func (g *WSGateway) ChatWS(c *gin.Context) {
	u := g.authenticate(c)
	if u == nil {
		return
	}
	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil || conversationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}
	ok, err := g.convs.IsParticipant(uint(conversationID), u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this conversation"})
		return
	}

	convID := uint(conversationID)
	senderName := u.DisplayName()
	g.serveWithInbound(c, u, ws.RoomTopic(convID), nil, func(client *ws.Client, raw []byte) {
		var in struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &in) != nil {
			return
		}
		if err := g.rooms.Send(u.ID, senderName, convID, in.Message); err != nil {
			g.sendError(client, err)
		}
	})
}

func (g *WSGateway) serve(c *gin.Context, u *models.User, topic string, onOpen func(*ws.Client)) {
	g.serveWithInbound(c, u, topic, onOpen, nil)
}

// serveWithInbound upgrades the connection, wires it into the hub and the
// presence tracker, and blocks on the read loop until the peer goes away or
// stops answering pings.
func (g *WSGateway) serveWithInbound(c *gin.Context, u *models.User, topic string, onOpen func(*ws.Client), onMessage func(*ws.Client, []byte)) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := ws.NewClient(uuid.NewString(), u.ID, u.DisplayName(), u.Role)
	g.hub.Subscribe(topic, client)
	g.tracker.Connect(u.ID)
	defer func() {
		g.tracker.Disconnect(u.ID)
		client.Close()
	}()

	go client.WritePump(conn)
	if onOpen != nil {
		onOpen(client)
	}

	var inbound func([]byte)
	if onMessage != nil {
		inbound = func(raw []byte) { onMessage(client, raw) }
	}
	client.ReadLoop(conn, inbound)
}

// sendError surfaces a failed send to the originating connection only; other
// room members never see it.
func (g *WSGateway) sendError(client *ws.Client, err error) {
	data, merr := json.Marshal(gin.H{"type": "error", "error": err.Error()})
	if merr != nil {
		return
	}
	if !client.SendDirect(data) {
		log.Printf("ws: error frame dropped for connection %s", client.ConnID)
	}
}
