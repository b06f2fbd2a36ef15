package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vagov/benefits-portal/internal/domain"
)

// profile returns the resolved identity profile for the current session.
// An active session implies the verified assurance level; failure statuses
// come back as typed statuses, not errors.
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "profile", domain.ErrUnauthorized)
		return
	}

	response, err := h.service.ResolveProfile(r.Context(), domain.UserIdentity{
		AccountUUID: session.AccountUUID,
		LOA:         3,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "profile", err)
		return
	}
	writeSuccess(w, http.StatusOK, response)
}

func (h *Handler) addCorrelationIDs(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "add_correlation_ids", domain.ErrUnauthorized)
		return
	}

	response, err := h.service.AddCorrelationIDs(r.Context(), domain.UserIdentity{
		AccountUUID: session.AccountUUID,
		LOA:         3,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "add_correlation_ids", err)
		return
	}
	writeSuccess(w, http.StatusOK, response)
}

func (h *Handler) referenceData(w http.ResponseWriter, r *http.Request) {
	set := chi.URLParam(r, "set")
	raw, err := h.service.ReferenceData(r.Context(), set)
	if err != nil {
		writeMappedError(r.Context(), w, "reference_data", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
