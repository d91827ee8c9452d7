// auth.go implements HTTP handlers for participant registration and the two
// login flows (participant and administrator).
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/psych-platform/chatbot-backend/internal/auth"
	"github.com/psych-platform/chatbot-backend/internal/config"
	"github.com/psych-platform/chatbot-backend/internal/db/repositories"
)

// usernamePattern constrains usernames to a shape that is safe to echo in
// listings and log lines. The UI historically allowed anything; the backend
// now enforces this at the source of truth.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{2,63}$`)

const minPasswordLength = 8

// AuthHandlers handles registration and login endpoints
type AuthHandlers struct {
	cfg    *config.AuthConfig
	users  *repositories.UserRepository
	tokens *auth.TokenService
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.AuthConfig, users *repositories.UserRepository, tokens *auth.TokenService) *AuthHandlers {
	return &AuthHandlers{cfg: cfg, users: users, tokens: tokens}
}

// registerRequest is the registration payload. The client historically posts
// profile fields (first name, last name, mail id) alongside the credentials;
// unknown keys are tolerated and ignored rather than rejected.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// @Summary      Register a new participant
// @Description  Creates a credential and a pending access record in one transaction. The account cannot chat until an administrator approves it.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  registerRequest  true  "Username and password"
// @Success      200  {object}  map[string]interface{}  "Registration successful, awaiting approval"
// @Failure      400  {object}  map[string]interface{}  "Validation failure or username already exists"
// @Failure      500  {object}  map[string]interface{}  "Storage failure"
// @Router       /register [post]
func (h *AuthHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if !usernamePattern.MatchString(req.Username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username"})
			return
		}
		if len(req.Password) < minPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			slog.Error("password hashing failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}

		userID, err := h.users.CreateUser(c.Request.Context(), req.Username, hash)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateUsername) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
				return
			}
			slog.Error("registration failed", "username", req.Username, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}

		slog.Info("participant registered", "user_id", userID, "username", req.Username)
		c.JSON(http.StatusOK, gin.H{"message": "Registration successful, awaiting approval"})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// @Summary      Participant login
// @Description  Verifies the credential and issues a session token. The token does not imply chat access; that is granted separately by an administrator.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Username and password"
// @Success      200  {object}  map[string]interface{}  "Login successful with token"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /login [post]
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			slog.Error("login lookup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}
		// An unknown username and a wrong password produce the same response.
		if user == nil || auth.CheckPassword(req.Password, user.PasswordHash) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := h.tokens.IssueUser(user.ID, user.Username)
		if err != nil {
			slog.Error("token issue failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
	}
}

// @Summary      Administrator login
// @Description  Verifies the fixed operator credential and issues a master session token. The operator is not a row in the user store.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Admin username and password"
// @Success      200  {object}  map[string]interface{}  "Admin login successful with token"
// @Failure      401  {object}  map[string]interface{}  "Invalid admin credentials"
// @Router       /admin/login [post]
func (h *AuthHandlers) AdminLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin credentials"})
			return
		}

		if err := auth.VerifyAdmin(req.Username, req.Password, h.cfg.AdminUsername, h.cfg.AdminPasswordHash); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin credentials"})
			return
		}

		token, err := h.tokens.IssueAdmin()
		if err != nil {
			slog.Error("admin token issue failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}

		slog.Info("administrator logged in")
		c.JSON(http.StatusOK, gin.H{"message": "Admin login successful", "token": token})
	}
}
