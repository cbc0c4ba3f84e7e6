package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/pkg/formatting"
	"github.com/JaimeStill/custodian/pkg/storage"
)

var (
	ErrFileTooLarge = errs.Validation("file exceeds maximum upload size")
	ErrInvalidForm  = errs.Validation("invalid form data")
)

// parseForm parses multipart and urlencoded bodies alike.
func parseForm(w http.ResponseWriter, r *http.Request, maxUploadSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	err := r.ParseMultipartForm(maxUploadSize)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return formError(err, maxUploadSize)
		}
		return nil
	default:
		return formError(err, maxUploadSize)
	}
}

func formError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return fmt.Errorf("%w: limit is %s", ErrFileTooLarge, formatting.FormatBytes(limit, 1))
	}
	return ErrInvalidForm
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeDocumentID reads a JSON body of the form {"document_id": "..."}.
func decodeDocumentID(w http.ResponseWriter, r *http.Request, maxUploadSize int64) (uuid.UUID, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	var body struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return uuid.Nil, formError(err, maxUploadSize)
	}

	id, err := uuid.Parse(strings.TrimSpace(body.DocumentID))
	if err != nil {
		return uuid.Nil, documents.ErrInvalidID
	}
	return id, nil
}

// ingest stores the multipart file in field and returns its metadata.
// A request without the field yields a nil file.
func ingest(
	ctx context.Context,
	r *http.Request,
	field string,
	files storage.System,
	logger *zap.Logger,
	maxUploadSize int64,
) (*documents.File, error) {
	part, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, ErrInvalidForm
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, formError(err, maxUploadSize)
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	key := buildStorageKey(uuid.New(), sanitizeFilename(header.Filename))

	if err := files.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, errs.Storage("store uploaded file", err)
	}

	return &documents.File{
		Ref:         key,
		Name:        header.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		PageCount:   extractPDFPageCount(logger, data, contentType),
	}, nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *zap.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", zap.Error(err))
		return nil
	}

	return &count
}
