package handler

import (
	"net/http"
	"strconv"

	"stafflink/internal/middleware"
	"stafflink/internal/models"
	"stafflink/internal/repository"
	"stafflink/internal/ws"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the request/response side of chat: conversation
// management, the message backlog, mark-read and unread counts. The real-time
// layer only ever handles events newer than the backlog fetched here.
type ChatHandler struct {
	convRepo     *repository.ConversationRepository
	msgRepo      *repository.MessageRepository
	presenceRepo *repository.PresenceRepository
	rooms        *ws.RoomManager
}

func NewChatHandler(convRepo *repository.ConversationRepository, msgRepo *repository.MessageRepository, presenceRepo *repository.PresenceRepository, rooms *ws.RoomManager) *ChatHandler {
	return &ChatHandler{convRepo: convRepo, msgRepo: msgRepo, presenceRepo: presenceRepo, rooms: rooms}
}

type CreateConversationRequest struct {
	ParticipantIDs []uint `json:"participant_ids" binding:"required,min=1"`
	IsGroup        bool   `json:"is_group"`
}

// CreateConversation starts a conversation with the caller included. For a
// 1:1 the existing thread between the pair is returned instead of creating a
// duplicate.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.IsGroup {
		if len(req.ParticipantIDs) != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a direct conversation takes exactly one other participant"})
			return
		}
		other := req.ParticipantIDs[0]
		if other == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
			return
		}
		existing, err := h.convRepo.FindDirect(userID, other)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusOK, existing)
			return
		}
	}

	participants := []models.User{{ID: userID}}
	for _, id := range req.ParticipantIDs {
		if id != userID {
			participants = append(participants, models.User{ID: id})
		}
	}
	conv := &models.Conversation{
		IsGroup:      req.IsGroup,
		Participants: participants,
	}
	if err := h.convRepo.Create(conv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.convRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// GetMessages returns the paginated backlog for a conversation the caller
// belongs to, oldest first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, ok := h.conversationParam(c, userID)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.msgRepo.ListByConversation(convID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// MarkRead flips every unread message from others in the conversation.
// Clients call it when the room view opens or refreshes.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, ok := h.conversationParam(c, userID)
	if !ok {
		return
	}
	if err := h.rooms.MarkRead(userID, convID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark read failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteConversation removes the thread and its messages. Any participant may
// do this.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, ok := h.conversationParam(c, userID)
	if !ok {
		return
	}
	if err := h.convRepo.Delete(convID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UnreadCount reports the caller's current unread total, recomputed from the
// store.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	count, err := h.msgRepo.UnreadCountForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// OnlineUsers lists the ids of users currently flagged online.
func (h *ChatHandler) OnlineUsers(c *gin.Context) {
	ids, err := h.presenceRepo.ListOnlineUserIDs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_ids": ids})
}

// conversationParam parses :conversation_id and enforces membership.
func (h *ChatHandler) conversationParam(c *gin.Context, userID uint) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return 0, false
	}
	ok, err := h.convRepo.IsParticipant(uint(id), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return 0, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this conversation"})
		return 0, false
	}
	return uint(id), true
}
