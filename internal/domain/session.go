package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated browser session established from a validated
// SAML assertion. AccountUUID is the user correlation key; at most one
// session is active per account at a time (a new login supersedes).
type Session struct {
	Token       string
	AccountUUID uuid.UUID
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time

	// Single-logout material from the originating assertion. The identity
	// provider terminates its own session by NameID and session index, not
	// by our token.
	NameID       string
	SessionIndex string
}

// Active reports whether the session is usable at the given instant.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// UserIdentity is the identity material extracted from a SAML assertion and
// carried through the session. LOA is the identity-assurance level asserted
// by the identity provider.
type UserIdentity struct {
	AccountUUID uuid.UUID
	Email       string
	FirstName   string
	LastName    string
	SSN         string
	ICN         string
	LOA         int
}

// LOA3 reports whether the user meets the minimum verified
// identity-assurance level required for profile resolution.
func (u UserIdentity) LOA3() bool {
	return u.LOA >= 3
}

// Tracker correlates an outbound authentication request with its eventual
// callback. Age at callback time is the measured login latency.
type Tracker struct {
	UUID         uuid.UUID
	LoginType    string
	AuthnContext string
	ClientID     string
	CreatedAt    time.Time
}

// LogoutRequest is the ephemeral record of an in-flight single-logout
// request, looked up by the InResponseTo of the logout callback.
type LogoutRequest struct {
	RequestID    string
	SessionToken string
	CreatedAt    time.Time
}
