package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

// Telemetry keys for the SSO flow. Names are part of the dashboards'
// contract and must stay stable.
const (
	statsSSONew            = "api.auth.new"
	statsSSOSAMLRequest    = "api.auth.saml_request"
	statsSSOSAMLResponse   = "api.auth.saml_response"
	statsSSOCallback       = "api.auth.saml_callback"
	statsSSOCallbackTotal  = "api.auth.login_callback.total"
	statsSSOCallbackFailed = "api.auth.login_callback.failed"
	statsLoginNewUser      = "api.auth.new_user"
	statsLoginSuccess      = "api.auth.login.success"
	statsLoginFailure      = "api.auth.login.failure"
	statsLoginLatency      = "api.auth.latency"

	versionTag = "version:v0"
)

// SessionCookies is the cookie pair issued on successful login: a public
// API session token and an internal SameSite-restricted SSO cookie.
type SessionCookies struct {
	APIToken string
	SSOToken string
}

// LoginCallbackResult tells the HTTP boundary where to send the browser and
// which cookies, if any, to set. Failure outcomes carry only a redirect.
type LoginCallbackResult struct {
	RedirectURL string
	Cookies     *SessionCookies
	Success     bool
	ErrorCode   string
}

// BeginLogin handles the portal's redirect endpoint. For slo it clears any
// existing session before redirecting; for every other supported type it
// records a tracker and redirects to the identity provider. The optional
// client identifier is always the last component appended to the URL.
func (s *Service) BeginLogin(ctx context.Context, rawType, clientID, currentSessionToken string) (string, error) {
	loginType, err := ParseLoginType(rawType)
	if err != nil {
		return "", err
	}
	s.telemetry.Increment(statsSSONew, "context:"+string(loginType), versionTag)

	if loginType == LoginTypeSLO {
		url, err := s.beginLogout(ctx, currentSessionToken)
		if err != nil {
			return "", err
		}
		return appendClientID(url, clientID), nil
	}

	now := s.nowFn()
	tracker := domain.Tracker{
		UUID:         uuid.New(),
		LoginType:    string(loginType),
		AuthnContext: authnContextByType[loginType],
		ClientID:     clientID,
		CreatedAt:    now,
	}
	if err := s.trackers.Put(ctx, tracker, s.cfg.TrackerTTL); err != nil {
		return "", fmt.Errorf("store tracker: %w", err)
	}

	url, err := s.buildLoginURL(ctx, loginType, tracker)
	if err != nil {
		return "", err
	}
	s.telemetry.Increment(statsSSOSAMLRequest,
		"type:"+string(loginType),
		"context:"+tracker.AuthnContext,
		versionTag,
	)

	// clientId must be appended after all other construction or the URL is
	// invalid for users running "do not track" browser extensions.
	return appendClientID(url, clientID), nil
}

func (s *Service) beginLogout(ctx context.Context, currentSessionToken string) (string, error) {
	now := s.nowFn()
	var nameID, sessionIndex string
	if currentSessionToken != "" {
		if session, err := s.sessions.GetByToken(ctx, currentSessionToken); err == nil {
			// The identity provider knows the session by the NameID and
			// session index it asserted at login, not by our token.
			nameID = session.NameID
			sessionIndex = session.SessionIndex
			if nameID == "" {
				nameID = session.AccountUUID.String()
			}
			_ = s.sessions.RevokeByToken(ctx, currentSessionToken, now)
		}
	}

	logoutRequestID := uuid.NewString()
	if err := s.logoutRequests.Put(ctx, domain.LogoutRequest{
		RequestID:    logoutRequestID,
		SessionToken: currentSessionToken,
		CreatedAt:    now,
	}, s.cfg.TrackerTTL); err != nil {
		return "", fmt.Errorf("store logout request: %w", err)
	}

	url, err := s.saml.BuildLogoutURL(ctx, logoutRequestID, nameID, sessionIndex)
	if err != nil {
		return "", err
	}
	return url, nil
}

// HandleLoginCallback validates the inbound SAML assertion and establishes
// a session. Every outcome results in a redirect: validation failures carry
// a numeric code, and any unexpected error degrades to the unknown-failure
// code after being reported to the error tracker. A raw error never reaches
// the browser.
func (s *Service) HandleLoginCallback(ctx context.Context, encodedResponse, rawRelayState, existingSessionToken string) LoginCallbackResult {
	defer s.telemetry.Increment(statsSSOCallbackTotal, versionTag)

	assertion, err := s.saml.ValidateLoginResponse(ctx, encodedResponse)
	state := decodeRelayState(rawRelayState)
	s.telemetry.Increment(statsSSOSAMLResponse,
		"type:"+state.Type,
		"context:"+assertion.AuthnContext,
		versionTag,
	)

	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return s.loginFailure(ctx, assertion, validationErr, existingSessionToken)
		}
		s.errTracker.Notify(ctx, err, map[string]string{
			"operation":              "saml_login_callback",
			"originating_request_id": state.OriginatingRequestID,
		})
		s.telemetry.Increment(statsSSOCallback, "status:failure", "context:unknown", versionTag)
		s.telemetry.Increment(statsSSOCallbackFailed, "error:unknown", versionTag)
		return LoginCallbackResult{
			RedirectURL: s.loginFailureRedirectURL(ports.SAMLErrorUnknown),
			ErrorCode:   ports.SAMLErrorUnknown,
		}
	}

	return s.loginSuccess(ctx, assertion, state)
}

func (s *Service) loginSuccess(ctx context.Context, assertion ports.Assertion, state relayState) LoginCallbackResult {
	now := s.nowFn()
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		AccountUUID:  assertion.Identity.AccountUUID,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.cfg.SessionTTL),
		NameID:       assertion.NameID,
		SessionIndex: assertion.SessionIndex,
	})
	if err != nil {
		s.errTracker.Notify(ctx, err, map[string]string{"operation": "create_session"})
		s.telemetry.Increment(statsSSOCallback, "status:failure", "context:"+assertion.AuthnContext, versionTag)
		return LoginCallbackResult{
			RedirectURL: s.loginFailureRedirectURL(ports.SAMLErrorUnknown),
			ErrorCode:   ports.SAMLErrorUnknown,
		}
	}

	apiToken, err := s.tokenSigner.Sign(ports.SessionClaims{
		SessionToken: session.Token,
		AccountUUID:  session.AccountUUID,
		IssuedAt:     session.IssuedAt,
		ExpiresAt:    session.ExpiresAt,
	})
	if err != nil {
		s.errTracker.Notify(ctx, err, map[string]string{"operation": "sign_session_cookie"})
		return LoginCallbackResult{
			RedirectURL: s.loginFailureRedirectURL(ports.SAMLErrorUnknown),
			ErrorCode:   ports.SAMLErrorUnknown,
		}
	}

	s.schedulePostLoginTask(ctx, assertion.Identity.AccountUUID, now)
	s.recordLoginStats(ctx, assertion, state)

	return LoginCallbackResult{
		RedirectURL: s.loginRedirectURL(),
		Cookies: &SessionCookies{
			APIToken: apiToken,
			SSOToken: session.Token,
		},
		Success: true,
	}
}

func (s *Service) loginFailure(ctx context.Context, assertion ports.Assertion, validationErr *domain.ValidationError, existingSessionToken string) LoginCallbackResult {
	// Legacy replay workaround, preserved exactly: a validation failure with
	// code 005 against a still-valid session is a replay of an
	// already-validated assertion, not a failed login.
	if validationErr.Code == ports.SAMLErrorValidationFailed && existingSessionToken != "" {
		if _, err := s.ValidateSession(ctx, existingSessionToken); err == nil {
			s.telemetry.Increment(statsSSOCallback, "status:success", "context:"+assertion.AuthnContext, versionTag)
			return LoginCallbackResult{
				RedirectURL: s.loginRedirectURL(),
				Success:     true,
			}
		}
	}

	slog.Default().WarnContext(ctx, "saml login validation failed",
		"module", "application",
		"layer", "service",
		"operation", "saml_login_callback",
		"outcome", "failure",
		"error_code", validationErr.Code,
		"messages", validationErr.Messages,
	)
	s.telemetry.Increment(statsLoginFailure, "context:"+assertion.AuthnContext, versionTag)
	s.telemetry.Increment(statsSSOCallback, "status:failure", "context:"+assertion.AuthnContext, versionTag)
	s.telemetry.Increment(statsSSOCallbackFailed, "error:"+validationErr.Code, versionTag)

	return LoginCallbackResult{
		RedirectURL: s.loginFailureRedirectURL(validationErr.Code),
		ErrorCode:   validationErr.Code,
	}
}

func (s *Service) recordLoginStats(ctx context.Context, assertion ports.Assertion, state relayState) {
	tags := []string{"context:" + assertion.AuthnContext, versionTag}
	s.telemetry.Increment(statsLoginSuccess, tags...)
	s.telemetry.Increment(statsSSOCallback, append([]string{"status:success"}, tags...)...)

	// The tracker UUID rides in the relay state; the assertion's
	// InResponseTo names the signed request, which is a different ID.
	trackerUUID := state.OriginatingRequestID
	tracker, err := s.trackers.Get(ctx, trackerUUID)
	if err != nil || tracker == nil {
		slog.Default().InfoContext(ctx, "login callback without matching tracker",
			"module", "application",
			"layer", "service",
			"operation", "saml_login_callback",
			"outcome", "success",
			"originating_request_id", trackerUUID,
		)
		return
	}
	if tracker.LoginType == string(LoginTypeSignup) {
		s.telemetry.Increment(statsLoginNewUser, versionTag)
	}
	// Login latency is measured from tracker creation to callback success.
	s.telemetry.Measure(statsLoginLatency, s.nowFn().Sub(tracker.CreatedAt), "context:"+tracker.LoginType, versionTag)
	_ = s.trackers.Delete(ctx, trackerUUID)
}

func (s *Service) schedulePostLoginTask(ctx context.Context, accountUUID uuid.UUID, at time.Time) {
	payload, _ := json.Marshal(ports.PostLoginTask{
		AccountUUID: accountUUID,
		LoggedInAt:  at,
	})
	if err := s.tasks.Publish(ctx, ports.TopicPostLogin, accountUUID.String(), payload); err != nil {
		// The login itself succeeded; a lost warm-up task is recoverable.
		slog.Default().WarnContext(ctx, "post-login task publish failed",
			"module", "application",
			"layer", "service",
			"operation", "schedule_post_login_task",
			"outcome", "failure",
			"error", err,
		)
	}
}

// HandleLogoutCallback resolves the originating logout request and clears
// the session. Logout is best effort: validation failures are logged and
// swallowed, and the browser is always redirected to the logout-completion
// URL so it is never stranded at the identity provider.
func (s *Service) HandleLogoutCallback(ctx context.Context, encodedResponse, currentSessionToken string) string {
	now := s.nowFn()
	defer func() {
		if currentSessionToken != "" {
			_ = s.sessions.RevokeByToken(ctx, currentSessionToken, now)
		}
	}()

	result, err := s.saml.ValidateLogoutResponse(ctx, encodedResponse)
	if err != nil {
		slog.Default().InfoContext(ctx, "slo callback response invalid",
			"module", "application",
			"layer", "service",
			"operation", "saml_logout_callback",
			"outcome", "failure",
			"error", err,
		)
		return s.logoutRedirectURL()
	}

	logoutRequest, err := s.logoutRequests.Get(ctx, result.InResponseTo)
	if err != nil || logoutRequest == nil {
		slog.Default().InfoContext(ctx, "slo callback could not resolve logout request",
			"module", "application",
			"layer", "service",
			"operation", "saml_logout_callback",
			"outcome", "failure",
			"in_response_to", result.InResponseTo,
		)
		return s.logoutRedirectURL()
	}

	_ = s.logoutRequests.Delete(ctx, result.InResponseTo)
	if logoutRequest.SessionToken != "" {
		_ = s.sessions.RevokeByToken(ctx, logoutRequest.SessionToken, now)
	}
	return s.logoutRedirectURL()
}

// ValidateSession checks the public session cookie against the session
// store and returns the active session.
func (s *Service) ValidateSession(ctx context.Context, apiToken string) (domain.Session, error) {
	claims, err := s.tokenSigner.ParseAndValidate(apiToken)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetByToken(ctx, claims.SessionToken)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if session.AccountUUID != claims.AccountUUID {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if !session.Active(s.nowFn()) {
		return domain.Session{}, domain.ErrSessionExpired
	}
	return session, nil
}
