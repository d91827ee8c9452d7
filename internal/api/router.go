// Package api wires together all HTTP routes for the chatbot backend.
//
// Route grouping philosophy:
//   - /register, /login and /admin/login are unauthenticated; they are how a
//     caller obtains a session in the first place.
//   - /chatbot-access and /chat require a participant session token, and /chat
//     additionally requires that an administrator has approved the account.
//     The approval check lives in middleware, not in the handler, so no future
//     chat route can forget it.
//   - Everything under /admin/ and /user-requests requires a master token.
package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/psych-platform/chatbot-backend/internal/auth"
	"github.com/psych-platform/chatbot-backend/internal/config"
	"github.com/psych-platform/chatbot-backend/internal/db/repositories"
	"github.com/psych-platform/chatbot-backend/internal/middleware"
	"github.com/psych-platform/chatbot-backend/internal/provider"
	"github.com/psych-platform/chatbot-backend/internal/services"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) *gin.Engine {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	accessRepo := repositories.NewAccessRepository(db)

	// Wrap *sql.DB with sqlx for the chat-exchange repository
	sqlxDB := sqlx.NewDb(db, "sqlite3")
	chatRepo := repositories.NewChatRepository(sqlxDB)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	completer := provider.NewClient(&cfg.Provider)
	relay := services.NewRelayService(completer, userRepo, chatRepo)

	authHandlers := NewAuthHandlers(&cfg.Auth, userRepo, tokens)
	adminHandlers := NewAdminHandlers(accessRepo, chatRepo)
	chatHandlers := NewChatHandlers(relay)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeaders())

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Public authentication routes
	router.POST("/register", authHandlers.RegisterHandler())
	router.POST("/login", authHandlers.LoginHandler())
	router.POST("/admin/login", authHandlers.AdminLoginHandler())

	// Participant routes
	router.GET("/chatbot-access", middleware.RequireChatAccess(tokens, accessRepo), chatHandlers.AccessCheckHandler())
	router.POST("/chat", middleware.RequireChatAccess(tokens, accessRepo), chatHandlers.ChatHandler())

	// Operator routes
	admin := router.Group("/admin", middleware.RequireAdmin(tokens))
	{
		admin.GET("/users", adminHandlers.ListUsersHandler())
		admin.GET("/pending-users", adminHandlers.ListPendingUsersHandler())
		admin.POST("/approve-revert", adminHandlers.ApproveRevertHandler())
	}

	requests := router.Group("/user-requests", middleware.RequireAdmin(tokens))
	{
		requests.GET("", adminHandlers.ListExchangesHandler())
		requests.PUT("/:id/chatgpt-response", adminHandlers.SetProviderReplyHandler())
		requests.PUT("/:id/admin-response", adminHandlers.SetAdminReplyHandler())
	}

	return router
}

// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy"
// @Router       /health [get]
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// LoggerMiddleware provides structured request logging
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		requestID := c.GetString(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", requestID),
		)
	}
}

// CORSMiddleware handles CORS for the browser frontend
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Server.CORSAllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
