package notifications

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/pkg/handlers"
	"github.com/JaimeStill/custodian/pkg/identity"
	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/routes"
)

var errNoCaller = errors.New("caller not authenticated")

// Handler provides HTTP endpoints for the caller's notification inbox.
type Handler struct {
	sys        System
	logger     *zap.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *zap.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With(zap.String("handler", "notifications")),
		pagination: pagination,
	}
}

// Routes returns the route group definition for notification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/notifications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "PATCH", Pattern: "/read-all", Handler: h.MarkAllRead},
			{Method: "PATCH", Pattern: "/{id}/read", Handler: h.MarkRead},
		},
	}
}

// List returns a page of the caller's notifications, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, errNoCaller)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	inbox, err := h.sys.List(r.Context(), caller.UserID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, errs.HTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, inbox)
}

// MarkRead marks one of the caller's notifications read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, errNoCaller)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.MarkRead(r.Context(), id, caller.UserID); err != nil {
		handlers.RespondError(w, h.logger, errs.HTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks every unread notification of the caller read.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, errNoCaller)
		return
	}

	n, err := h.sys.MarkAllRead(r.Context(), caller.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, errs.HTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, MarkAllResult{Updated: n})
}
