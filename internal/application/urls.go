package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vagov/benefits-portal/internal/domain"
)

// LoginType enumerates the supported values of the redirect endpoint's
// `type` parameter. Anything outside this set is a routing error.
type LoginType string

const (
	LoginTypeSignup  LoginType = "signup"
	LoginTypeMHV     LoginType = "mhv"
	LoginTypeDSLogon LoginType = "dslogon"
	LoginTypeIDMe    LoginType = "idme"
	LoginTypeMFA     LoginType = "mfa"
	LoginTypeVerify  LoginType = "verify"
	LoginTypeSLO     LoginType = "slo"
)

// Authn context classes requested from the identity provider, per login type.
const (
	authnContextLOA1        = "http://idmanagement.gov/ns/assurance/loa/1/vets"
	authnContextLOA3        = "http://idmanagement.gov/ns/assurance/loa/3/vets"
	authnContextMHV         = "myhealthevet"
	authnContextDSLogon     = "dslogon"
	authnContextMultifactor = "multifactor"
)

// authnContextByType replaces the original dynamic method dispatch with an
// explicit mapping; exhaustiveness over the LoginType variants is checked in
// tests. slo is absent because logout does not carry an authn context.
var authnContextByType = map[LoginType]string{
	LoginTypeSignup:  authnContextLOA1,
	LoginTypeMHV:     authnContextMHV,
	LoginTypeDSLogon: authnContextDSLogon,
	LoginTypeIDMe:    authnContextLOA1,
	LoginTypeMFA:     authnContextMultifactor,
	LoginTypeVerify:  authnContextLOA3,
}

// ParseLoginType validates the raw `type` parameter.
func ParseLoginType(raw string) (LoginType, error) {
	t := LoginType(raw)
	if _, ok := authnContextByType[t]; ok {
		return t, nil
	}
	if t == LoginTypeSLO {
		return t, nil
	}
	return "", fmt.Errorf("%w: unsupported login type %q", domain.ErrRoutingError, raw)
}

// relayState is the JSON blob round-tripped through the identity provider so
// the callback can be matched back to its originating request.
type relayState struct {
	Type                 string `json:"type"`
	OriginatingRequestID string `json:"originating_request_id"`
}

func encodeRelayState(loginType LoginType, trackerUUID string) string {
	raw, _ := json.Marshal(relayState{
		Type:                 string(loginType),
		OriginatingRequestID: trackerUUID,
	})
	return string(raw)
}

func decodeRelayState(raw string) relayState {
	var state relayState
	if raw == "" {
		return state
	}
	_ = json.Unmarshal([]byte(raw), &state)
	return state
}

// buildLoginURL produces the identity-provider redirect for a non-slo login
// type. The tracker UUID is embedded in the relay state so the later
// response can be matched back.
func (s *Service) buildLoginURL(ctx context.Context, loginType LoginType, tracker domain.Tracker) (string, error) {
	authnContext, ok := authnContextByType[loginType]
	if !ok {
		return "", fmt.Errorf("%w: no authn context for type %q", domain.ErrRoutingError, loginType)
	}
	return s.saml.BuildLoginURL(ctx, authnContext, encodeRelayState(loginType, tracker.UUID.String()))
}

// loginRedirectURL is the post-callback browser destination.
func (s *Service) loginRedirectURL() string {
	return s.cfg.LoginRedirectURL
}

// loginFailureRedirectURL carries the numeric failure code back to the
// front end without exposing any error internals.
func (s *Service) loginFailureRedirectURL(code string) string {
	return s.cfg.LoginRedirectURL + "?auth=fail&code=" + code
}

func (s *Service) logoutRedirectURL() string {
	return s.cfg.LogoutRedirectURL
}

// appendClientID attaches the optional client identifier. It must be the
// last component appended: some browser privacy extensions invalidate URLs
// whose parameters are reordered afterwards.
func appendClientID(url, clientID string) string {
	if clientID == "" {
		return url
	}
	return url + "&clientId=" + clientID
}
