package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/pkg/handlers"
	"github.com/JaimeStill/custodian/pkg/routes"
	"github.com/JaimeStill/custodian/pkg/storage"
)

var errVersionNotFound = errs.NotFound("document version not found")

type fileHandler struct {
	docs   documents.System
	store  storage.System
	logger *zap.Logger
}

func newFileHandler(docs documents.System, store storage.System, logger *zap.Logger) *fileHandler {
	return &fileHandler{
		docs:   docs,
		store:  store,
		logger: logger.With(zap.String("handler", "files")),
	}
}

func (h *fileHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/documents/{id}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/file", Handler: h.current},
			{Method: "GET", Pattern: "/versions/{version}/file", Handler: h.version},
		},
	}
}

// current streams the file a document points to now.
func (h *fileHandler) current(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.find(w, r)
	if !ok {
		return
	}
	h.stream(w, r, detail.File)
}

// version streams the file of a superseded version.
func (h *fileHandler) version(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || n < 1 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errs.Validation("invalid version"))
		return
	}

	detail, ok := h.find(w, r)
	if !ok {
		return
	}

	if n == detail.Version {
		h.stream(w, r, detail.File)
		return
	}
	for _, v := range detail.Versions {
		if v.Version == n {
			h.stream(w, r, v.File)
			return
		}
	}

	handlers.RespondError(w, h.logger, http.StatusNotFound, errVersionNotFound)
}

func (h *fileHandler) find(w http.ResponseWriter, r *http.Request) (*documents.Detail, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrInvalidID)
		return nil, false
	}

	detail, err := h.docs.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, errs.HTTPStatus(err), err)
		return nil, false
	}
	return detail, true
}

func (h *fileHandler) stream(w http.ResponseWriter, r *http.Request, file documents.File) {
	body, err := h.store.Download(r.Context(), file.Ref)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	if file.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.SizeBytes, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("file stream interrupted", zap.String("ref", file.Ref), zap.Error(err))
	}
}
