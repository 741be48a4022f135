package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/lazycord/internal/handlers"
	"github.com/thereayou/lazycord/internal/middleware"
	"github.com/thereayou/lazycord/pkg/auth"
)

// Handlers собирает все обработчики для регистрации маршрутов
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Channel      *handlers.ChannelHandler
	Moderation   *handlers.ModerationHandler
	Message      *handlers.HTTPMessageHandler
	Notification *handlers.NotificationHandler
	WebSocket    *handlers.WebSocketHandler
	JWTManager   *auth.JWTManager
	Redis        *redis.Client
}

func APIEndpoints(r *gin.Engine, h *Handlers) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(h.JWTManager, h.Redis), h.Auth.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(h.JWTManager, h.Redis))
	{
		users := api.Group("/users")
		{
			users.GET("/me", h.User.GetMe)
			users.PUT("/me", h.User.UpdateMe)
			users.GET("/search", h.User.SearchUsers)
			users.GET("/:id", h.User.GetUser)
		}

		channels := api.Group("/channels")
		{
			channels.POST("", h.Channel.CreateChannel)
			channels.POST("/direct", h.Channel.CreateDirectChannel)
			channels.GET("", h.Channel.GetMyChannels)
			channels.GET("/public", h.Channel.GetPublicChannels)
			channels.GET("/:id", h.Channel.GetChannel)
			channels.PUT("/:id", h.Channel.UpdateChannel)
			channels.DELETE("/:id", h.Channel.DeleteChannel)

			channels.POST("/:id/join", h.Channel.JoinChannel)
			channels.POST("/:id/leave", h.Channel.LeaveChannel)
			channels.GET("/:id/members", h.Channel.GetChannelMembers)
			channels.POST("/:id/promote", h.Channel.PromoteMember)
			channels.POST("/:id/transfer", h.Channel.TransferOwnership)

			channels.POST("/:id/bans", h.Moderation.BanUser)
			channels.GET("/:id/bans", h.Moderation.GetChannelBans)
			channels.DELETE("/:id/bans/:banId", h.Moderation.UnbanUser)
			channels.POST("/:id/mutes", h.Moderation.MuteUser)
			channels.GET("/:id/mutes", h.Moderation.GetChannelMutes)
			channels.DELETE("/:id/mutes/:muteId", h.Moderation.UnmuteUser)

			channels.GET("/:id/messages", h.Message.GetChannelMessages)
			channels.POST("/:id/messages", h.Message.SendMessage)
		}

		messages := api.Group("/messages")
		{
			messages.PUT("/:id", h.Message.UpdateMessage)
			messages.DELETE("/:id", h.Message.DeleteMessage)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.Notification.GetMyNotifications)
			notifications.GET("/unread-count", h.Notification.GetUnreadCount)
			notifications.POST("/:id/read", h.Notification.MarkRead)
			notifications.POST("/read-all", h.Notification.MarkAllRead)
			notifications.DELETE("/:id", h.Notification.DeleteNotification)
		}
	}

	// WebSocket endpoint
	r.GET("/ws", middleware.WSAuthMiddleware(h.JWTManager, h.Redis), h.WebSocket.HandleWebSocket)
}
