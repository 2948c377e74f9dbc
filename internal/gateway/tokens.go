package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClientIDPrefix starts every issued client id.
const ClientIDPrefix = "id-"

// ErrInvalidToken is returned by Verify when a token does not check out.
var ErrInvalidToken = errors.New("gateway: invalid token")

// NewClientID returns a fresh client id.
func NewClientID() string {
	return ClientIDPrefix + uuid.NewString()
}

// TokenIssuer signs and verifies the HS256 tokens handed out by /auth.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. Tokens expire ttl after issue.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token whose subject is clientID.
func (t *TokenIssuer) Issue(clientID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("gateway: cannot sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its client id.
func (t *TokenIssuer) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !strings.HasPrefix(claims.Subject, ClientIDPrefix) {
		return "", fmt.Errorf("%w: unexpected subject %q", ErrInvalidToken, claims.Subject)
	}
	return claims.Subject, nil
}
