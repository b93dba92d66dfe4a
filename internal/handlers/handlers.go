package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jayjaytrn/refund-desk/config"
	"github.com/jayjaytrn/refund-desk/internal/allotment"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/auth"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/internal/lifecycle"
	"github.com/jayjaytrn/refund-desk/internal/refund"
	"github.com/jayjaytrn/refund-desk/internal/storage"
	"github.com/jayjaytrn/refund-desk/internal/verification"
	"github.com/jayjaytrn/refund-desk/models"
	"go.uber.org/zap"
)

type Handler struct {
	Database  db.Database
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Verifier  *verification.Orchestrator
	Allotter  *allotment.Coordinator
	Lifecycle *lifecycle.Service
	Refunds   *refund.Workflow
	Storage   storage.Storage
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.Response{Success: status < http.StatusBadRequest, Message: message})
}

// writeError maps the error kinds of the service layer to a status and a body.
// Infrastructure failures are logged in full and answered with their public message only.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
		conflict   *apperrors.ConflictError
		transition *apperrors.InvalidTransitionError
		infra      *apperrors.InfrastructureError
	)

	switch {
	case errors.As(err, &validation):
		writeMessage(w, http.StatusBadRequest, validation.Msg)
	case errors.As(err, &notFound):
		writeMessage(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		writeMessage(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &transition):
		writeMessage(w, http.StatusConflict, transition.Error())
	case errors.As(err, &infra):
		h.Logger.Errorw("infrastructure failure",
			"op", infra.Op,
			"error", infra.Err,
			"path", r.URL.Path,
			"requestID", chimw.GetReqID(r.Context()),
		)
		writeMessage(w, http.StatusServiceUnavailable, infra.Public)
	default:
		h.Logger.Errorw("unexpected error", "error", err, "path", r.URL.Path, "requestID", chimw.GetReqID(r.Context()))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Logger.Debugw("error decoding request body", "error", err, "path", r.URL.Path)
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// identity is set by the auth middleware on every route that reaches a handler using it.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization required")
	}
	return identity, ok
}
