package ports

import (
	"time"

	"github.com/google/uuid"
)

// SessionClaims is what the public session cookie asserts.
type SessionClaims struct {
	SessionToken string
	AccountUUID  uuid.UUID
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// TokenSigner signs and parses the public session cookie value. Keys are
// held at adapter level so the application layer stays crypto-library
// agnostic.
type TokenSigner interface {
	Sign(claims SessionClaims) (string, error)
	ParseAndValidate(raw string) (SessionClaims, error)
}
