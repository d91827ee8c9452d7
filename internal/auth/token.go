// Package auth implements session-token issuance and verification plus
// credential hashing for the chatbot backend.
//
// Tokens are HS256 JWTs carrying either a user claim ({user_id, username}) or
// the administrative marker ({role: "master"}). They are stateless: the server
// keeps only the signing secret, so expiry is the sole invalidation mechanism.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recorded in access records and administrative token claims.
const (
	RoleRegistered = "registered"
	RoleMaster     = "master"
)

var (
	// ErrInvalidToken covers malformed tokens, wrong signing methods, and
	// signature mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for structurally valid tokens past their
	// expiry. Kept distinct from ErrInvalidToken so clients can prompt for
	// re-login instead of treating the token as forged.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidCredentials is deliberately undifferentiated: callers must
	// not learn whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims is the JWT claim set for both user and admin sessions.
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the administrative marker.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleMaster
}

// TokenService signs and verifies session tokens. The signing secret is
// injected at construction time (never read from the environment here) so the
// service is testable with a fake secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenService creates a TokenService. ttl <= 0 falls back to one hour,
// matching the session lifetime of the original deployment.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "chatbot-backend",
	}
}

// IssueUser creates a session token for an authenticated user.
func (s *TokenService) IssueUser(userID, username string) (string, error) {
	return s.sign(&Claims{
		UserID:   userID,
		Username: username,
	})
}

// IssueAdmin creates a session token carrying the administrative marker.
// Admin tokens have no user_id: the operator identity is not a Credential
// Store row.
func (s *TokenService) IssueAdmin() (string, error) {
	return s.sign(&Claims{
		Role: RoleMaster,
	})
}

func (s *TokenService) sign(claims *Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token. Verification is all-or-nothing: any
// failure other than expiry maps to ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
