package permissions

import (
	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/pkg/query"
	"github.com/JaimeStill/custodian/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "permission_requests", "r").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("requested_by", "RequestedBy").
	Project("action", "Action").
	Project("new_file_ref", "NewFileRef").
	Project("new_file_name", "NewFileName").
	Project("new_content_type", "NewContentType").
	Project("new_size_bytes", "NewSizeBytes").
	Project("new_page_count", "NewPageCount").
	Project("status", "Status").
	Project("resolved_by", "ResolvedBy").
	Project("resolved_at", "ResolvedAt").
	Project("created_at", "CreatedAt")

var pendingProjection = query.
	NewProjectionMap("public", "permission_requests", "r").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("requested_by", "RequestedBy").
	Project("action", "Action").
	Project("new_file_ref", "NewFileRef").
	Project("new_file_name", "NewFileName").
	Project("new_content_type", "NewContentType").
	Project("new_size_bytes", "NewSizeBytes").
	Project("new_page_count", "NewPageCount").
	Project("status", "Status").
	Project("resolved_by", "ResolvedBy").
	Project("resolved_at", "ResolvedAt").
	Project("created_at", "CreatedAt").
	Join("public", "documents", "d", "JOIN", "d.id = r.document_id").
	Project("title", "DocumentTitle")

var oldestFirst = query.SortField{
	Field:      "CreatedAt",
	Descending: false,
}

type fileColumns struct {
	ref         *string
	name        *string
	contentType *string
	sizeBytes   *int64
	pageCount   *int
}

func (f fileColumns) file() *documents.File {
	if f.ref == nil {
		return nil
	}
	file := &documents.File{
		Ref:       *f.ref,
		PageCount: f.pageCount,
	}
	if f.name != nil {
		file.Name = *f.name
	}
	if f.contentType != nil {
		file.ContentType = *f.contentType
	}
	if f.sizeBytes != nil {
		file.SizeBytes = *f.sizeBytes
	}
	return file
}

func fileArgs(f *documents.File) []any {
	if f == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	return []any{f.Ref, f.Name, f.ContentType, f.SizeBytes, f.PageCount}
}

func scanRequest(s repository.Scanner) (Request, error) {
	var (
		r  Request
		fc fileColumns
	)
	err := s.Scan(
		&r.ID,
		&r.DocumentID,
		&r.RequestedBy,
		&r.Action,
		&fc.ref,
		&fc.name,
		&fc.contentType,
		&fc.sizeBytes,
		&fc.pageCount,
		&r.Status,
		&r.ResolvedBy,
		&r.ResolvedAt,
		&r.CreatedAt,
	)
	r.NewFile = fc.file()
	return r, err
}

func scanPending(s repository.Scanner) (Pending, error) {
	var (
		p  Pending
		fc fileColumns
	)
	err := s.Scan(
		&p.ID,
		&p.DocumentID,
		&p.RequestedBy,
		&p.Action,
		&fc.ref,
		&fc.name,
		&fc.contentType,
		&fc.sizeBytes,
		&fc.pageCount,
		&p.Status,
		&p.ResolvedBy,
		&p.ResolvedAt,
		&p.CreatedAt,
		&p.DocumentTitle,
	)
	p.NewFile = fc.file()
	return p, err
}
