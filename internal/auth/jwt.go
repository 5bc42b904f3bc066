package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/routines-api/internal/models"
	"github.com/thejerf/abtime"
)

// SessionTTL is the fixed validity window of every issued token.
const SessionTTL = 7 * 24 * time.Hour

// ErrEmptySecret is returned when a TokenIssuer is built without a signing secret.
var ErrEmptySecret = errors.New("token signing secret must not be empty")

// Claims defines the JWT claims structure.
type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
	clock  abtime.AbstractTime
}

// NewTokenIssuer creates a TokenIssuer. A nil clock means wall-clock time.
func NewTokenIssuer(secret string, clock abtime.AbstractTime) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &TokenIssuer{secret: []byte(secret), clock: clock}, nil
}

// Issue creates a signed token for the given user, valid for SessionTTL.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.clock.Now()
	claims := &Claims{
		ID:       user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token string and returns its claims.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.clock.Now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
