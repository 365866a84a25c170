package middleware

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const operatorRole = "operator"

// OperatorClaims defines the structure of the JWT claims carried by an
// operator session token.
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorAuthorizer exchanges the shared admin secret for a session-scoped
// JWT once per connection, and verifies that token on every moderation
// action. Failed verification is the caller's signal to stay silent
// (fail-closed posture on the realtime channel).
type OperatorAuthorizer struct {
	adminSecret []byte
	jwtSecret   []byte
	tokenTTL    time.Duration
	logger      *logger.Logger
}

func NewOperatorAuthorizer(adminSecret, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *OperatorAuthorizer {
	return &OperatorAuthorizer{
		adminSecret: []byte(adminSecret),
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		logger:      log.Named("OperatorAuthorizer"),
	}
}

// VerifySecret compares the presented secret against the configured one in
// constant time.
func (a *OperatorAuthorizer) VerifySecret(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), a.adminSecret) == 1
}

// IssueToken mints a short-lived operator session token. The caller must have
// verified the shared secret first.
func (a *OperatorAuthorizer) IssueToken() (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		Role: operatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		a.logger.Error("Failed to sign operator token", zap.Error(err))
		return "", fmt.Errorf("failed to sign operator token: %w", err)
	}
	return signed, nil
}

// VerifyToken reports whether the token is a valid, unexpired operator
// session token. It never returns error details; moderation callers treat
// any failure as silence.
func (a *OperatorAuthorizer) VerifyToken(tokenString string) bool {
	if tokenString == "" {
		return false
	}

	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		a.logger.Debug("Operator token rejected", zap.Error(err))
		return false
	}
	return claims.Role == operatorRole
}

// Authorize accepts either a session token or the raw shared secret. The raw
// secret path keeps the legacy operator pages working while the channel
// clients migrate to tokens.
func (a *OperatorAuthorizer) Authorize(tokenOrSecret string) bool {
	return a.VerifyToken(tokenOrSecret) || a.VerifySecret(tokenOrSecret)
}
