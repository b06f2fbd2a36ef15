package http

import (
	"net/http"
	"time"

	"github.com/vagov/benefits-portal/internal/application"
)

// newSession redirects the browser into the identity-provider flow for the
// requested login type. An unrecognized type is a 404, not a failure
// redirect.
func (h *Handler) newSession(w http.ResponseWriter, r *http.Request) {
	loginType := r.URL.Query().Get("type")
	clientID := r.URL.Query().Get("client_id")
	currentSession := cookieValue(r, h.cfg.SSOCookieName)

	url, err := h.service.BeginLogin(r.Context(), loginType, clientID, currentSession)
	if err != nil {
		writeMappedError(r.Context(), w, "new_session", err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// samlLoginCallback receives the POSTed SAML response. Every outcome is a
// redirect back to the front end; success also sets the session cookie
// pair.
func (h *Handler) samlLoginCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidationError(r.Context(), w, "saml_login_callback", err)
		return
	}
	encodedResponse := r.PostFormValue("SAMLResponse")
	relayState := r.PostFormValue("RelayState")
	existingSession := cookieValue(r, h.cfg.SSOCookieName)

	result := h.service.HandleLoginCallback(r.Context(), encodedResponse, relayState, existingSession)
	if result.Cookies != nil {
		h.setSessionCookies(w, *result.Cookies)
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// samlLogoutCallback receives the POSTed logout response. The browser is
// always sent to the logout-completion URL and the cookies are cleared.
func (h *Handler) samlLogoutCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidationError(r.Context(), w, "saml_logout_callback", err)
		return
	}
	encodedResponse := r.PostFormValue("SAMLResponse")
	currentSession := cookieValue(r, h.cfg.SSOCookieName)

	redirectURL := h.service.HandleLogoutCallback(r.Context(), encodedResponse, currentSession)
	h.clearSessionCookies(w)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, cookies application.SessionCookies) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    cookies.APIToken,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	// The SSO cookie carries the raw session token for same-site internal
	// consumers and is never exposed cross-site.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SSOCookieName,
		Value:    cookies.SSOToken,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	expired := time.Unix(0, 0)
	for _, name := range []string{h.cfg.SessionCookieName, h.cfg.SSOCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.cfg.CookieDomain,
			Expires:  expired,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.SecureCookies,
		})
	}
}
