package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vagov/benefits-portal/internal/application"
)

// Config is the HTTP-boundary configuration: cookie naming and transport
// attributes for the session cookie pair.
type Config struct {
	SessionCookieName string
	SSOCookieName     string
	CookieDomain      string
	SecureCookies     bool
}

// Handler is the HTTP adapter entrypoint for the portal API.
type Handler struct {
	service *application.Service
	cfg     Config
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, cfg Config) *Handler {
	return &Handler{service: service, cfg: cfg}
}

// NewRouter registers the portal API routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/v0", func(r chi.Router) {
		r.Get("/sessions/new", handler.newSession)
		r.Post("/sessions/saml/callback", handler.samlLoginCallback)
		r.Post("/sessions/saml/logout-callback", handler.samlLogoutCallback)
		r.Get("/reference-data/{set}", handler.referenceData)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/profile", handler.profile)
			r.Post("/profile/correlation-ids", handler.addCorrelationIDs)
			r.Post("/claims/686c", handler.submitClaim)
			r.Get("/claims/jobs/{job_id}", handler.jobStatus)
			r.Get("/claims/submissions/{submission_id}/history", handler.submissionHistory)
		})
	})

	return r
}
