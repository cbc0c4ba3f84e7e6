package workflow

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/permissions"
	"github.com/JaimeStill/custodian/pkg/identity"
)

func (e *engine) Upload(ctx context.Context, caller identity.Caller, cmd UploadCommand) (doc *documents.Document, err error) {
	ctx, span := tracer.Start(ctx, "workflow.Upload", trace.WithAttributes(
		attribute.String("caller.id", caller.UserID.String()),
	))
	defer func() { finish(span, err) }()
	defer e.discardOnError(ctx, &err, &cmd.File)

	if !caller.Role.Valid() {
		return nil, ErrUnknownRole
	}

	title := normalizeTitle(cmd.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if cmd.File.Ref == "" {
		return nil, ErrFileRequired
	}

	err = e.store.Atomic(ctx, func(tx Tx) error {
		doc, err = tx.Documents().Insert(ctx, documents.NewDocument{
			Title:        title,
			Description:  cmd.Description,
			DocumentType: cmd.DocumentType,
			File:         cmd.File,
			CreatedBy:    caller.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info(
		"document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("created_by", caller.UserID.String()),
	)
	return doc, nil
}

func (e *engine) RequestReplace(
	ctx context.Context,
	caller identity.Caller,
	documentID uuid.UUID,
	file documents.File,
) (out *Outcome, err error) {
	ctx, span := tracer.Start(ctx, "workflow.RequestReplace", trace.WithAttributes(
		attribute.String("document.id", documentID.String()),
		attribute.String("caller.id", caller.UserID.String()),
		attribute.Bool("caller.privileged", caller.Privileged()),
	))
	defer func() { finish(span, err) }()
	defer e.discardOnError(ctx, &err, &file)

	if !caller.Role.Valid() {
		return nil, ErrUnknownRole
	}
	if file.Ref == "" {
		return nil, ErrFileRequired
	}

	if caller.Privileged() {
		return e.replaceNow(ctx, caller, documentID, file)
	}
	return e.openRequest(ctx, caller, documentID, permissions.ActionReplace, &file)
}

func (e *engine) RequestDelete(
	ctx context.Context,
	caller identity.Caller,
	documentID uuid.UUID,
	file *documents.File,
) (out *Outcome, err error) {
	ctx, span := tracer.Start(ctx, "workflow.RequestDelete", trace.WithAttributes(
		attribute.String("document.id", documentID.String()),
		attribute.String("caller.id", caller.UserID.String()),
		attribute.Bool("caller.privileged", caller.Privileged()),
	))
	defer func() { finish(span, err) }()
	defer e.discardOnError(ctx, &err, file)

	if !caller.Role.Valid() {
		return nil, ErrUnknownRole
	}
	if file != nil {
		return nil, ErrUnexpectedFile
	}

	if caller.Privileged() {
		return e.deleteNow(ctx, documentID)
	}
	return e.openRequest(ctx, caller, documentID, permissions.ActionDelete, nil)
}

func (e *engine) Request(ctx context.Context, caller identity.Caller, cmd RequestCommand) (*Outcome, error) {
	switch cmd.Action {
	case permissions.ActionReplace:
		if cmd.File == nil {
			return nil, ErrFileRequired
		}
		return e.RequestReplace(ctx, caller, cmd.DocumentID, *cmd.File)
	case permissions.ActionDelete:
		return e.RequestDelete(ctx, caller, cmd.DocumentID, cmd.File)
	}
	e.discard(ctx, cmd.File)
	return nil, permissions.ErrInvalidAction
}

// replaceNow snapshots the current file as a version and points the
// document at file. A document awaiting a request decision is locked even
// for privileged callers.
func (e *engine) replaceNow(
	ctx context.Context,
	caller identity.Caller,
	documentID uuid.UUID,
	file documents.File,
) (*Outcome, error) {
	var doc *documents.Document

	err := e.store.Atomic(ctx, func(tx Tx) error {
		current, err := lockActive(ctx, tx, documentID)
		if err != nil {
			return err
		}

		doc, err = advance(ctx, tx, current, file, caller.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info(
		"document replaced",
		zap.String("document_id", doc.ID.String()),
		zap.Int("version", doc.Version),
		zap.String("replaced_by", caller.UserID.String()),
	)
	return &Outcome{Applied: true, DocumentID: doc.ID, Document: doc}, nil
}

func (e *engine) deleteNow(ctx context.Context, documentID uuid.UUID) (*Outcome, error) {
	var refs purgeSet

	err := e.store.Atomic(ctx, func(tx Tx) error {
		current, err := lockActive(ctx, tx, documentID)
		if err != nil {
			return err
		}

		refs, err = remove(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.purge(ctx, refs)

	e.logger.Info("document deleted", zap.String("document_id", documentID.String()))
	return &Outcome{Applied: true, DocumentID: documentID}, nil
}

// openRequest records a PENDING request and moves the document into the
// matching pending status. The document must exist, be ACTIVE, and carry
// no other PENDING request.
func (e *engine) openRequest(
	ctx context.Context,
	caller identity.Caller,
	documentID uuid.UUID,
	action permissions.Action,
	file *documents.File,
) (*Outcome, error) {
	var (
		doc *documents.Document
		req *permissions.Request
	)

	err := e.store.Atomic(ctx, func(tx Tx) error {
		if _, err := lockActive(ctx, tx, documentID); err != nil {
			return err
		}

		var err error
		req, err = tx.Permissions().Insert(ctx, permissions.NewRequest{
			DocumentID:  documentID,
			RequestedBy: caller.UserID,
			Action:      action,
			NewFile:     file,
		})
		if err != nil {
			return err
		}

		doc, err = tx.Documents().UpdateStatus(ctx, documentID, pendingStatus(action))
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info(
		"permission request opened",
		zap.String("request_id", req.ID.String()),
		zap.String("document_id", documentID.String()),
		zap.String("action", string(action)),
		zap.String("requested_by", caller.UserID.String()),
	)
	return &Outcome{DocumentID: documentID, Document: doc, Request: req}, nil
}

// lockActive loads and locks a document, failing with ErrDocumentLocked
// unless it is ACTIVE.
func lockActive(ctx context.Context, tx Tx, documentID uuid.UUID) (*documents.Document, error) {
	doc, err := tx.Documents().FindForUpdate(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != documents.StatusActive {
		return nil, ErrDocumentLocked
	}
	return doc, nil
}

// advance snapshots doc's current file and points doc at file, bumping
// its version by one.
func advance(
	ctx context.Context,
	tx Tx,
	doc *documents.Document,
	file documents.File,
	author uuid.UUID,
) (*documents.Document, error) {
	_, err := tx.Documents().InsertVersion(ctx, documents.NewVersion{
		DocumentID: doc.ID,
		Version:    doc.Version,
		File:       doc.File,
		CreatedBy:  author,
	})
	if err != nil {
		return nil, err
	}
	return tx.Documents().UpdateFile(ctx, doc.ID, file)
}

// remove deletes a document's rows and returns the files they referenced.
func remove(ctx context.Context, tx Tx, doc *documents.Document) (purgeSet, error) {
	versions, err := tx.Documents().DeleteVersions(ctx, doc.ID)
	if err != nil {
		return purgeSet{}, err
	}

	requests, err := tx.Permissions().DeleteByDocument(ctx, doc.ID)
	if err != nil {
		return purgeSet{}, err
	}

	if err := tx.Documents().Delete(ctx, doc.ID); err != nil {
		return purgeSet{}, err
	}

	refs := purgeSet{document: doc.File.Ref}
	for _, v := range versions {
		refs.versions = append(refs.versions, v.File.Ref)
	}
	for _, r := range requests {
		if r.Status == permissions.StatusPending && r.NewFile != nil {
			refs.staged = append(refs.staged, r.NewFile.Ref)
		}
	}
	return refs, nil
}

func pendingStatus(action permissions.Action) documents.Status {
	if action == permissions.ActionDelete {
		return documents.StatusPendingDelete
	}
	return documents.StatusPendingReplace
}

func normalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
