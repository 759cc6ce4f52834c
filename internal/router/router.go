package router

import (
	"time"

	"stafflink/config"
	"stafflink/internal/handler"
	"stafflink/internal/middleware"
	"stafflink/internal/repository"
	"stafflink/internal/service"
	"stafflink/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, hub *ws.Hub) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)

	// Real-time components
	tracker := ws.NewPresenceTracker(presenceRepo, hub)
	notifier := ws.NewNotifier(msgRepo, hub)
	rooms := ws.NewRoomManager(msgRepo, convRepo, notifier, hub)

	// Handlers
	authSvc := service.NewAuthService(cfg, userRepo)
	authHandler := handler.NewAuthHandler(authSvc)
	chatHandler := handler.NewChatHandler(convRepo, msgRepo, presenceRepo, rooms)
	gateway := handler.NewWSGateway(&cfg.JWT, hub, tracker, rooms, notifier, userRepo, convRepo)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)

		authed := api.Group("")
		authed.Use(middleware.AuthRequired(&cfg.JWT))
		{
			authed.POST("/conversations", chatHandler.CreateConversation)
			authed.GET("/conversations", chatHandler.ListConversations)
			authed.GET("/conversations/:conversation_id/messages", chatHandler.GetMessages)
			authed.POST("/conversations/:conversation_id/read", chatHandler.MarkRead)
			authed.DELETE("/conversations/:conversation_id", chatHandler.DeleteConversation)
			authed.GET("/notifications/unread-count", chatHandler.UnreadCount)
			authed.GET("/users/online", chatHandler.OnlineUsers)
		}
	}

	// WebSocket endpoints authenticate via ?token= because browsers cannot
	// set headers on WS upgrades.
	r.GET("/ws/presence", gateway.PresenceWS)
	r.GET("/ws/notifications", gateway.NotificationsWS)
	r.GET("/ws/chat/:conversation_id", gateway.ChatWS)

	return r
}
