package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/ar-tracker/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	ttl        time.Duration
	staffGroup string
}

// NewTokenManager builds a new manager. staffGroup names the group that grants the staff role.
func NewTokenManager(secret string, ttlMinutes int, staffGroup string) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	if staffGroup == "" {
		staffGroup = domain.DefaultStaffGroup
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, staffGroup: staffGroup}
}

// Claims describes JWT payload. The subject claim carries the user id.
type Claims struct {
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the identity.
func (tm *TokenManager) GenerateToken(identity domain.AuthContext) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Username: identity.Username,
		Email:    identity.Email,
		Groups:   identity.Groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// AuthContext validates the token and resolves the caller identity.
func (tm *TokenManager) AuthContext(tokenStr string) (domain.AuthContext, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return domain.AuthContext{}, err
	}
	return claims.authContext(tokenStr, tm.staffGroup), nil
}

// ContextFromToken reads the identity out of a token without checking its signature. Clients
// use it to learn their own role; the server always verifies.
func ContextFromToken(tokenStr, staffGroup string) (domain.AuthContext, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return domain.AuthContext{}, err
	}
	if claims.Subject == "" {
		return domain.AuthContext{}, errors.New("token has no subject")
	}
	return claims.authContext(tokenStr, staffGroup), nil
}

func (c *Claims) authContext(tokenStr, staffGroup string) domain.AuthContext {
	return domain.AuthContext{
		UserID:     c.Subject,
		Username:   c.Username,
		Email:      c.Email,
		Groups:     append([]string(nil), c.Groups...),
		StaffGroup: staffGroup,
		Token:      tokenStr,
	}
}
