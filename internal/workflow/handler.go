package workflow

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/internal/permissions"
	"github.com/JaimeStill/custodian/pkg/handlers"
	"github.com/JaimeStill/custodian/pkg/identity"
	"github.com/JaimeStill/custodian/pkg/routes"
	"github.com/JaimeStill/custodian/pkg/storage"
)

var errNoCaller = errors.New("caller not authenticated")

// Handler provides HTTP endpoints for the document lifecycle and for
// permission request resolution.
type Handler struct {
	sys           System
	files         storage.System
	logger        *zap.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler. Uploaded files are written to files
// before sys is invoked.
func NewHandler(sys System, files storage.System, logger *zap.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		files:         files,
		logger:        logger.With(zap.String("handler", "workflow")),
		maxUploadSize: maxUploadSize,
	}
}

// DocumentRoutes returns the route group for document mutations.
func (h *Handler) DocumentRoutes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "POST", Pattern: "/request-replace", Handler: h.RequestReplace},
			{Method: "POST", Pattern: "/request-delete", Handler: h.RequestDelete},
			{Method: "GET", Pattern: "/{id}/request", Handler: h.PendingRequest},
		},
	}
}

// PermissionRoutes returns the route group for permission requests.
// Listing and resolution require a privileged caller.
func (h *Handler) PermissionRoutes() routes.Group {
	return routes.Group{
		Prefix: "/permissions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Request},
			{Method: "GET", Pattern: "/pending", Handler: h.ListPending, Privileged: true},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/approve", Handler: h.Approve, Privileged: true},
			{Method: "POST", Pattern: "/{id}/reject", Handler: h.Reject, Privileged: true},
		},
	}
}

// Upload accepts a multipart form with title, description, document_type,
// and file fields and creates an ACTIVE document.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		h.fail(w, err)
		return
	}

	file, err := ingest(r.Context(), r, "file", h.files, h.logger, h.maxUploadSize)
	if err != nil {
		h.fail(w, err)
		return
	}
	if file == nil {
		h.fail(w, ErrFileRequired)
		return
	}

	doc, err := h.sys.Upload(r.Context(), caller, UploadCommand{
		Title:        r.FormValue("title"),
		Description:  optional(r.FormValue("description")),
		DocumentType: optional(r.FormValue("document_type")),
		File:         *file,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

// RequestReplace accepts a multipart form with document_id and file fields.
func (h *Handler) RequestReplace(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		h.fail(w, err)
		return
	}

	documentID, err := parseDocumentID(r, "document_id")
	if err != nil {
		h.fail(w, err)
		return
	}

	file, err := ingest(r.Context(), r, "file", h.files, h.logger, h.maxUploadSize)
	if err != nil {
		h.fail(w, err)
		return
	}
	if file == nil {
		h.fail(w, ErrFileRequired)
		return
	}

	out, err := h.sys.RequestReplace(r.Context(), caller, documentID, *file)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, outcomeStatus(out), out)
}

// RequestDelete accepts a JSON body or a form with a document_id field.
// A form that also carries a file is rejected by the engine.
func (h *Handler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var (
		documentID uuid.UUID
		file       *documents.File
		err        error
	)
	if isJSON(r) {
		documentID, err = decodeDocumentID(w, r, h.maxUploadSize)
	} else {
		documentID, file, err = h.deleteForm(w, r)
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.sys.RequestDelete(r.Context(), caller, documentID, file)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, outcomeStatus(out), out)
}

func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) (uuid.UUID, *documents.File, error) {
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		return uuid.Nil, nil, err
	}

	documentID, err := parseDocumentID(r, "document_id")
	if err != nil {
		return uuid.Nil, nil, err
	}

	file, err := ingest(r.Context(), r, "file", h.files, h.logger, h.maxUploadSize)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return documentID, file, nil
}

// Request accepts a form with documentId (or document_id), action, and an optional file field
// and dispatches it by action.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		h.fail(w, err)
		return
	}

	documentID, err := parseDocumentID(r, "documentId", "document_id")
	if err != nil {
		h.fail(w, err)
		return
	}

	action := permissions.Action(strings.ToUpper(strings.TrimSpace(r.FormValue("action"))))
	if !action.Valid() {
		h.fail(w, permissions.ErrInvalidAction)
		return
	}

	file, err := ingest(r.Context(), r, "file", h.files, h.logger, h.maxUploadSize)
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.sys.Request(r.Context(), caller, RequestCommand{
		DocumentID: documentID,
		Action:     action,
		File:       file,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, outcomeStatus(out), out)
}

// ListPending returns every PENDING request, oldest first.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	pending, err := h.sys.ListPending(r.Context(), caller)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, pending)
}

// Find returns the request identified by the id path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.sys.Find)
}

// PendingRequest returns the PENDING request on the document identified by
// the id path parameter.
func (h *Handler) PendingRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, documents.ErrInvalidID)
		return
	}

	req, err := h.sys.PendingRequest(r.Context(), caller, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, req)
}

// Approve applies the PENDING request identified by the id path parameter.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.sys.Approve)
}

// Reject discards the PENDING request identified by the id path parameter.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.sys.Reject)
}

type resolver func(ctx context.Context, caller identity.Caller, id uuid.UUID) (*permissions.Request, error)

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn resolver) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, permissions.ErrInvalidID)
		return
	}

	req, err := fn(r.Context(), caller, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, req)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (identity.Caller, bool) {
	caller, ok := identity.CallerFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, errNoCaller)
	}
	return caller, ok
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if errors.Is(err, ErrFileTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	handlers.RespondError(w, h.logger, status, err)
}

// parseDocumentID parses the first non-empty form field among fields.
func parseDocumentID(r *http.Request, fields ...string) (uuid.UUID, error) {
	var value string
	for _, field := range fields {
		if value = strings.TrimSpace(r.FormValue(field)); value != "" {
			break
		}
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, documents.ErrInvalidID
	}
	return id, nil
}

func outcomeStatus(out *Outcome) int {
	if out.Applied {
		return http.StatusOK
	}
	return http.StatusAccepted
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
