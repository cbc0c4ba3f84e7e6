package documents

import (
	"net/url"

	"github.com/JaimeStill/custodian/pkg/query"
	"github.com/JaimeStill/custodian/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("description", "Description").
	Project("document_type", "DocumentType").
	Project("file_ref", "FileRef").
	Project("file_name", "FileName").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("version", "Version").
	Project("status", "Status").
	Project("created_by", "CreatedBy").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var versionProjection = query.
	NewProjectionMap("public", "document_versions", "v").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("version", "Version").
	Project("file_ref", "FileRef").
	Project("file_name", "FileName").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("created_by", "CreatedBy").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var versionSort = query.SortField{
	Field:      "Version",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Status and DocumentType use exact matching.
type Filters struct {
	Status       *Status `json:"status,omitempty"`
	DocumentType *string `json:"document_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("DocumentType", f.DocumentType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Returns ErrInvalidStatus for a status outside the known set.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if s := values.Get("status"); s != "" {
		status := Status(s)
		if !status.Valid() {
			return Filters{}, ErrInvalidStatus
		}
		f.Status = &status
	}

	if dt := values.Get("document_type"); dt != "" {
		f.DocumentType = &dt
	}

	return f, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.DocumentType,
		&d.File.Ref,
		&d.File.Name,
		&d.File.ContentType,
		&d.File.SizeBytes,
		&d.File.PageCount,
		&d.Version,
		&d.Status,
		&d.CreatedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	err := s.Scan(
		&v.ID,
		&v.DocumentID,
		&v.Version,
		&v.File.Ref,
		&v.File.Name,
		&v.File.ContentType,
		&v.File.SizeBytes,
		&v.File.PageCount,
		&v.CreatedBy,
		&v.CreatedAt,
	)
	return v, err
}
