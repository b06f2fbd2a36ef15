package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
)

// submitClaim accepts a dependency-change claim for background processing
// and returns the job ID the caller can poll.
func (h *Handler) submitClaim(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "submit_claim", domain.ErrUnauthorized)
		return
	}

	var payload domain.ClaimPayload
	if err := decodeBody(r, &payload); err != nil {
		writeValidationError(r.Context(), w, "submit_claim", err)
		return
	}

	jobID, err := h.service.AcceptSubmission(r.Context(), session.AccountUUID, payload)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_claim", err)
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
	})
}

func (h *Handler) jobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "job_status", err)
		return
	}

	record, err := h.service.JobStatus(r.Context(), jobID)
	if err != nil {
		writeMappedError(r.Context(), w, "job_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"job_id":        record.JobID,
		"submission_id": record.SubmissionID,
		"status":        record.Status,
		"errors":        record.ErrorMessagesForReporting(),
		"updated_at":    record.UpdatedAt,
	})
}

func (h *Handler) submissionHistory(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(chi.URLParam(r, "submission_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "submission_history", err)
		return
	}

	records, err := h.service.SubmissionHistory(r.Context(), submissionID)
	if err != nil {
		writeMappedError(r.Context(), w, "submission_history", err)
		return
	}
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		out = append(out, map[string]any{
			"job_id":     record.JobID,
			"status":     record.Status,
			"updated_at": record.UpdatedAt,
		})
	}
	writeSuccess(w, http.StatusOK, out)
}
