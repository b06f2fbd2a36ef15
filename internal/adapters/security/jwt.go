package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/ports"
)

// JWTSigner implements HS256 signing/parsing for the public session cookie.
type JWTSigner struct {
	secret []byte
}

// NewJWTSigner builds a signer from the configured shared secret.
func NewJWTSigner(secret string) (*JWTSigner, error) {
	if secret == "" {
		return nil, errors.New("session token secret is required")
	}
	return &JWTSigner{secret: []byte(secret)}, nil
}

// NewEphemeralJWTSigner creates a random-secret signer for local/dev use.
// Cookies signed by it do not survive a restart.
func NewEphemeralJWTSigner() *JWTSigner {
	raw := make([]byte, 32)
	_, _ = rand.Read(raw)
	return &JWTSigner{secret: []byte(hex.EncodeToString(raw))}
}

type sessionJWTClaims struct {
	SessionToken string `json:"session_token"`
	AccountUUID  string `json:"account_uuid"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionJWTClaims{
		SessionToken: claims.SessionToken,
		AccountUUID:  claims.AccountUUID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(s.secret)
}

func (s *JWTSigner) ParseAndValidate(raw string) (ports.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.SessionClaims{}, err
	}
	claims, ok := parsed.Claims.(*sessionJWTClaims)
	if !ok || !parsed.Valid {
		return ports.SessionClaims{}, errors.New("invalid token claims")
	}

	accountUUID, err := uuid.Parse(claims.AccountUUID)
	if err != nil {
		return ports.SessionClaims{}, fmt.Errorf("parse account_uuid: %w", err)
	}

	out := ports.SessionClaims{
		SessionToken: claims.SessionToken,
		AccountUUID:  accountUUID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
