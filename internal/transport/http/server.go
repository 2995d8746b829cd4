package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/auth"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/config"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

// NewServer builds the HTTP server: REST API plus the WebSocket endpoint.
func NewServer(hub *core.Hub, st store.Store, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	authHandlers := NewAuthHandlers(authService, logger)
	todoHandlers := NewTodoHandlers(st, logger)
	messageHandlers := NewMessageHandlers(st, hub, logger)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandlers.Register)
		api.POST("/auth/login", authHandlers.Login)
		api.GET("/auth/me", AuthMiddleware(authService, logger), authHandlers.Me)

		todos := api.Group("/todos", AuthMiddleware(authService, logger))
		{
			todos.GET("", todoHandlers.ListTodos)
			todos.POST("", todoHandlers.CreateTodo)
			todos.GET("/:id", todoHandlers.GetTodo)
			todos.PUT("/:id", todoHandlers.UpdateTodo)
			todos.DELETE("/:id", todoHandlers.DeleteTodo)
		}

		messages := api.Group("/messages", AuthMiddleware(authService, logger))
		{
			messages.GET("/users/search", messageHandlers.SearchUsers)
			messages.GET("/conversations", messageHandlers.ListConversations)
			messages.POST("/conversations", messageHandlers.CreateConversation)
			messages.GET("/conversations/:id/messages", messageHandlers.ListMessages)
			messages.POST("/conversations/:id/messages", messageHandlers.SendMessage)
			messages.PUT("/conversations/:id/mark-read", messageHandlers.MarkRead)
		}
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
