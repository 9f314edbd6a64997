package services

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the bearer credential payload. It carries no exp:
// validity is decided by the stored session token and heartbeat.
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Credentials struct {
	secret []byte
}

func NewCredentials(secret string) *Credentials {
	return &Credentials{secret: []byte(secret)}
}

func (c *Credentials) Sign(userID, sessionID string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{UserID: userID, SessionID: sessionID})
	s, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return s, nil
}

// Parse verifies the signature and returns the embedded ids.
// Any malformed or badly signed credential is ErrUnauthenticated.
func (c *Credentials) Parse(credential string) (*SessionClaims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrUnauthenticated
	}
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		// защита: принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}
