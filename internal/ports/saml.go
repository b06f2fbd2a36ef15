package ports

import (
	"context"

	"github.com/vagov/benefits-portal/internal/domain"
)

// SAML validation error codes as the failure redirect reports them to the
// front end. These mirror the identity provider integration contract.
const (
	SAMLErrorClickedDeny       = "001"
	SAMLErrorAuthTooLate       = "002"
	SAMLErrorAuthTooEarly      = "003"
	SAMLErrorMissingAttributes = "004"
	SAMLErrorValidationFailed  = "005"
	SAMLErrorUnknown           = "007"
)

// Assertion is the validated content of a login SAML response.
type Assertion struct {
	// InResponseTo is the tracker UUID the originating request embedded.
	InResponseTo string
	NameID       string
	AuthnContext string
	SessionIndex string
	Identity     domain.UserIdentity
}

// LogoutResult is the validated content of a logout SAML response.
type LogoutResult struct {
	InResponseTo string
}

// SAMLProvider builds identity-provider URLs and cryptographically
// validates inbound assertions. Validation failures are returned as
// *domain.ValidationError carrying the numeric failure code; they are never
// surfaced to the browser directly.
type SAMLProvider interface {
	BuildLoginURL(ctx context.Context, authnContext, relayState string) (string, error)
	BuildLogoutURL(ctx context.Context, relayState, nameID, sessionIndex string) (string, error)
	ValidateLoginResponse(ctx context.Context, encodedResponse string) (Assertion, error)
	ValidateLogoutResponse(ctx context.Context, encodedResponse string) (LogoutResult, error)
}
