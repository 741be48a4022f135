package server

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thereayou/lazycord/internal/access"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/handlers"
	"github.com/thereayou/lazycord/internal/notify"
	ws "github.com/thereayou/lazycord/internal/websocket"
	"github.com/thereayou/lazycord/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *ws.Hub
}

func NewServer() *Server {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	hub := ws.NewHub()
	go hub.Run()

	checker := access.NewChecker(dbConn)
	dispatcher := notify.NewDispatcher(dbConn, hub)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn)
	messageH := handlers.NewMessageHandler(dbConn, hub, checker, dispatcher)
	channelH := handlers.NewChannelHandler(dbConn, hub, checker)
	moderationH := handlers.NewModerationHandler(dbConn, dispatcher)
	httpMessageH := handlers.NewHTTPMessageHandler(dbConn, checker, messageH)
	notificationH := handlers.NewNotificationHandler(dbConn, dispatcher)
	wsH := handlers.NewWebSocketHandler(hub, messageH)

	router := gin.Default()
	APIEndpoints(router, &Handlers{
		Auth:         authH,
		User:         userH,
		Channel:      channelH,
		Moderation:   moderationH,
		Message:      httpMessageH,
		Notification: notificationH,
		WebSocket:    wsH,
		JWTManager:   jwtMgr,
		Redis:        rdb,
	})

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("server starting")
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server run error")
	}
}
