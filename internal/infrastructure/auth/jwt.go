package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"opsync/internal/shared/authorization"
	"opsync/internal/shared/biztime"
)

type Claims struct {
	UserID      uint                   `json:"user_id"`
	SessionID   string                 `json:"session_id"`
	DisplayName string                 `json:"display_name"`
	Role        authorization.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret           []byte
	accessExpMinutes int
}

func NewJWTService(secret string, accessExpMinutes int) *JWTService {
	return &JWTService{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
	}
}

// Generate signs an access token bound to the session. The token lifetime
// matches the session lifetime; session expiry is the source of truth.
func (s *JWTService) Generate(userID uint, sessionID, displayName string, role authorization.UserRole) (string, error) {
	now := biztime.NowUTC()

	claims := &Claims{
		UserID:      userID,
		SessionID:   sessionID,
		DisplayName: displayName,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.accessExpMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ExpirySeconds returns the access token lifetime in seconds, for cookie max-age.
func (s *JWTService) ExpirySeconds() int {
	return s.accessExpMinutes * 60
}
