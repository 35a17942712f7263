package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionSigner issues and checks the anonymous storefront session cookie.
// The token only binds a browser to its cart; it carries no identity.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), ttl: ttl}
}

// Issue creates a new session id and its signed token.
func (s *SessionSigner) Issue() (sessionID, token string, err error) {
	if len(s.secret) == 0 {
		return "", "", fmt.Errorf("session secret not set")
	}
	sessionID = GenerateUUID()
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})
	token, err = t.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return sessionID, token, nil
}

// Verify returns the session id carried by a valid token.
func (s *SessionSigner) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("session id missing from token")
	}
	return sid, nil
}

func GenerateUUID() string {
	return uuid.NewString()
}
