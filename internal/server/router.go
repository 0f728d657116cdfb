package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tejaspachgade2315/Voosh/internal/handlers"
	"github.com/tejaspachgade2315/Voosh/internal/middleware"
	"github.com/tejaspachgade2315/Voosh/internal/platform/envutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	HealthHandler  *handlers.HealthHandler
	SessionHandler *handlers.SessionHandler
	ChatHandler    *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Log))

	origins := strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/session", cfg.SessionHandler.CreateSession)
		api.GET("/session/:id/history", cfg.SessionHandler.GetHistory)
		api.DELETE("/session/:id/history", cfg.SessionHandler.ClearHistory)
		api.DELETE("/session/:id", cfg.SessionHandler.DeleteSession)

		api.POST("/chat", cfg.ChatHandler.Chat)
		api.POST("/chat/stream", cfg.ChatHandler.ChatStream)
	}

	return router
}
