// Package middleware provides Gin HTTP middleware for authentication,
// authorization, request identification, security headers, and metrics.
//
// Middleware ordering is enforced in router.go:
//
//	Security → RequestID → Metrics → Auth/Guard → Handler
//
// Security headers run first so they appear on all responses including
// errors. The auth middleware populates the verified claims in the request
// context; the chat-access guard reads from that context and additionally
// consults the approval store. Every guarded route fails closed: any outcome
// other than a verified, approved claim is a denial.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psych-platform/chatbot-backend/internal/auth"
	"github.com/psych-platform/chatbot-backend/internal/db/repositories"
)

// Context keys populated by the auth middleware.
const (
	ClaimsKey   = "claims"
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// bearerToken extracts the token from the Authorization header. The empty
// string means the header was missing or not a bearer credential.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// verifyRequest validates the bearer token and aborts with 401 on any
// failure, distinguishing expiry from invalidity in the message only.
func verifyRequest(c *gin.Context, tokens *auth.TokenService) (*auth.Claims, bool) {
	raw := bearerToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Missing authorization header",
		})
		return nil, false
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, auth.ErrTokenExpired) {
			msg = "Token expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return nil, false
	}

	return claims, true
}

// RequireUser validates a user session token and stores the verified claims
// in the request context. Admin tokens are rejected here: they carry no user
// identity to act as.
func RequireUser(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyRequest(c, tokens)
		if !ok {
			return
		}

		if claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

// RequireAdmin validates a token carrying the master marker. A valid user
// token on an administrative route is a 403, not a 401: the caller is
// authenticated but not authorized.
func RequireAdmin(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyRequest(c, tokens)
		if !ok {
			return
		}

		if !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Administrative access required",
			})
			return
		}

		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// RequireChatAccess is the relay access guard. On top of a valid user token
// it requires an access record with approval_status=approved. No record,
// pending, and reverted all deny; an orphaned identity with no access record
// at all denies as well.
func RequireChatAccess(tokens *auth.TokenService, access *repositories.AccessRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyRequest(c, tokens)
		if !ok {
			return
		}
		if claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)

		granted, err := access.HasApprovedAccess(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check access",
			})
			return
		}

		if !granted {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied",
			})
			return
		}

		c.Next()
	}
}
