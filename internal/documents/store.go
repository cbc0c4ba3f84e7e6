package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/query"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Store is the persistence contract for documents and their versions.
// A Store is bound to a single repository.Querier, so the same
// implementation serves both pooled reads and transactional writes.
type Store interface {
	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindForUpdate loads the document and locks its row until the
	// enclosing transaction ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Document, error)
	Insert(ctx context.Context, doc NewDocument) (*Document, error)
	// UpdateFile points the document at file and advances its version by one.
	UpdateFile(ctx context.Context, id uuid.UUID, file File) (*Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page pagination.PageRequest, filters Filters) ([]Document, error)
	Count(ctx context.Context, page pagination.PageRequest, filters Filters) (int, error)

	// Versions returns the version history of a document, newest first.
	Versions(ctx context.Context, documentID uuid.UUID) ([]Version, error)
	InsertVersion(ctx context.Context, v NewVersion) (*Version, error)
	// DeleteVersions removes every version of a document and returns the removed rows.
	DeleteVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error)
}

var (
	insertDocumentSQL = fmt.Sprintf(`
		INSERT INTO public.documents AS d (id, title, description, document_type, file_ref, file_name, content_type, size_bytes, page_count, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, projection.Columns())

	updateFileSQL = fmt.Sprintf(`
		UPDATE public.documents AS d
		SET file_ref = $2, file_name = $3, content_type = $4, size_bytes = $5, page_count = $6,
			version = d.version + 1, updated_at = now()
		WHERE d.id = $1
		RETURNING %s`, projection.Columns())

	updateStatusSQL = fmt.Sprintf(`
		UPDATE public.documents AS d
		SET status = $2, updated_at = now()
		WHERE d.id = $1
		RETURNING %s`, projection.Columns())

	deleteDocumentSQL = `DELETE FROM public.documents WHERE id = $1`

	insertVersionSQL = fmt.Sprintf(`
		INSERT INTO public.document_versions AS v (id, document_id, version, file_ref, file_name, content_type, size_bytes, page_count, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, versionProjection.Columns())

	deleteVersionsSQL = fmt.Sprintf(`
		DELETE FROM public.document_versions AS v
		WHERE v.document_id = $1
		RETURNING %s`, versionProjection.Columns())
)

type store struct {
	db repository.Querier
}

// NewStore creates a Postgres-backed document Store on db.
func NewStore(db repository.Querier) Store {
	return &store{db: db}
}

func (s *store) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, s.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *store) FindForUpdate(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).ForUpdate().BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, s.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *store) Insert(ctx context.Context, doc NewDocument) (*Document, error) {
	args := []any{
		uuid.New(),
		doc.Title,
		doc.Description,
		doc.DocumentType,
		doc.File.Ref,
		doc.File.Name,
		doc.File.ContentType,
		doc.File.SizeBytes,
		doc.File.PageCount,
		doc.CreatedBy,
	}

	d, err := repository.QueryOne(ctx, s.db, insertDocumentSQL, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *store) UpdateFile(ctx context.Context, id uuid.UUID, file File) (*Document, error) {
	args := []any{
		id,
		file.Ref,
		file.Name,
		file.ContentType,
		file.SizeBytes,
		file.PageCount,
	}

	d, err := repository.QueryOne(ctx, s.db, updateFileSQL, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Document, error) {
	d, err := repository.QueryOne(ctx, s.db, updateStatusSQL, []any{id, status}, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, s.db, deleteDocumentSQL, id); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *store) List(ctx context.Context, page pagination.PageRequest, filters Filters) ([]Document, error) {
	qb := listBuilder(page, filters)

	q, args := qb.BuildPage(page.Page, page.Limit)
	docs, err := repository.QueryMany(ctx, s.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return docs, nil
}

func (s *store) Count(ctx context.Context, page pagination.PageRequest, filters Filters) (int, error) {
	q, args := listBuilder(page, filters).BuildCount()

	var total int
	if err := s.db.QueryRow(ctx, q, args...).Scan(&total); err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

func (s *store) Versions(ctx context.Context, documentID uuid.UUID) ([]Version, error) {
	q, args := query.
		NewBuilder(versionProjection, versionSort).
		WhereEquals("DocumentID", documentID).
		Build()

	versions, err := repository.QueryMany(ctx, s.db, q, args, scanVersion)
	if err != nil {
		return nil, mapError(err)
	}
	return versions, nil
}

func (s *store) InsertVersion(ctx context.Context, v NewVersion) (*Version, error) {
	args := []any{
		uuid.New(),
		v.DocumentID,
		v.Version,
		v.File.Ref,
		v.File.Name,
		v.File.ContentType,
		v.File.SizeBytes,
		v.File.PageCount,
		v.CreatedBy,
	}

	ver, err := repository.QueryOne(ctx, s.db, insertVersionSQL, args, scanVersion)
	if err != nil {
		return nil, mapError(err)
	}
	return &ver, nil
}

func (s *store) DeleteVersions(ctx context.Context, documentID uuid.UUID) ([]Version, error) {
	versions, err := repository.QueryMany(ctx, s.db, deleteVersionsSQL, []any{documentID}, scanVersion)
	if err != nil {
		return nil, mapError(err)
	}
	return versions, nil
}

func listBuilder(page pagination.PageRequest, filters Filters) *query.Builder {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}
	return qb
}
