package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/internal/permissions"
	"github.com/JaimeStill/custodian/pkg/identity"
)

var errMissingStagedFile = errs.Validation("replace request has no staged file")

func (e *engine) Approve(ctx context.Context, caller identity.Caller, requestID uuid.UUID) (resolved *permissions.Request, err error) {
	ctx, span := tracer.Start(ctx, "workflow.Approve", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("caller.id", caller.UserID.String()),
	))
	defer func() { finish(span, err) }()

	if !caller.Privileged() {
		return nil, ErrForbidden
	}

	var refs purgeSet
	at := e.now().UTC()

	err = e.store.Atomic(ctx, func(tx Tx) error {
		req, err := tx.Permissions().FindPendingForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		doc, err := tx.Documents().FindForUpdate(ctx, req.DocumentID)
		if err != nil {
			return err
		}

		switch req.Action {
		case permissions.ActionDelete:
			if refs, err = remove(ctx, tx, doc); err != nil {
				return err
			}
			resolved = req
			resolved.Status = permissions.StatusApproved
			resolved.ResolvedBy = &caller.UserID
			resolved.ResolvedAt = &at
		case permissions.ActionReplace:
			if req.NewFile == nil {
				return errMissingStagedFile
			}
			if _, err = advance(ctx, tx, doc, *req.NewFile, req.RequestedBy); err != nil {
				return err
			}
			if _, err = tx.Documents().UpdateStatus(ctx, doc.ID, documents.StatusActive); err != nil {
				return err
			}
			if resolved, err = tx.Permissions().MarkResolved(ctx, req.ID, permissions.StatusApproved, caller.UserID, at); err != nil {
				return err
			}
		default:
			return permissions.ErrInvalidAction
		}

		_, err = tx.Notifications().Append(ctx, req.RequestedBy, approvedMessage(req.Action))
		return err
	})
	if err != nil {
		return nil, err
	}

	e.purge(ctx, refs)

	e.logger.Info(
		"permission request approved",
		zap.String("request_id", resolved.ID.String()),
		zap.String("document_id", resolved.DocumentID.String()),
		zap.String("action", string(resolved.Action)),
		zap.String("resolved_by", caller.UserID.String()),
	)
	return resolved, nil
}

func (e *engine) Reject(ctx context.Context, caller identity.Caller, requestID uuid.UUID) (resolved *permissions.Request, err error) {
	ctx, span := tracer.Start(ctx, "workflow.Reject", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("caller.id", caller.UserID.String()),
	))
	defer func() { finish(span, err) }()

	if !caller.Privileged() {
		return nil, ErrForbidden
	}

	at := e.now().UTC()

	err = e.store.Atomic(ctx, func(tx Tx) error {
		req, err := tx.Permissions().FindPendingForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if resolved, err = tx.Permissions().MarkResolved(ctx, req.ID, permissions.StatusRejected, caller.UserID, at); err != nil {
			return err
		}
		if _, err = tx.Documents().UpdateStatus(ctx, req.DocumentID, documents.StatusActive); err != nil {
			return err
		}

		_, err = tx.Notifications().Append(ctx, req.RequestedBy, rejectedMessage(req.Action))
		return err
	})
	if err != nil {
		return nil, err
	}

	if resolved.Action == permissions.ActionReplace && resolved.NewFile != nil {
		e.purge(ctx, purgeSet{staged: []string{resolved.NewFile.Ref}})
	}

	e.logger.Info(
		"permission request rejected",
		zap.String("request_id", resolved.ID.String()),
		zap.String("document_id", resolved.DocumentID.String()),
		zap.String("action", string(resolved.Action)),
		zap.String("resolved_by", caller.UserID.String()),
	)
	return resolved, nil
}

func (e *engine) ListPending(ctx context.Context, caller identity.Caller) (pending []permissions.Pending, err error) {
	ctx, span := tracer.Start(ctx, "workflow.ListPending")
	defer func() { finish(span, err) }()

	if !caller.Privileged() {
		return nil, ErrForbidden
	}

	err = e.store.Atomic(ctx, func(tx Tx) error {
		pending, err = tx.Permissions().ListPending(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// Find returns a request to its requester or to a privileged caller.
// Anyone else gets ErrNotFound.
func (e *engine) Find(ctx context.Context, caller identity.Caller, requestID uuid.UUID) (req *permissions.Request, err error) {
	ctx, span := tracer.Start(ctx, "workflow.Find", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	defer func() { finish(span, err) }()

	err = e.store.Atomic(ctx, func(tx Tx) error {
		req, err = tx.Permissions().Find(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !visible(caller, req) {
		return nil, permissions.ErrNotFound
	}
	return req, nil
}

func (e *engine) PendingRequest(ctx context.Context, caller identity.Caller, documentID uuid.UUID) (req *permissions.Request, err error) {
	ctx, span := tracer.Start(ctx, "workflow.PendingRequest", trace.WithAttributes(
		attribute.String("document.id", documentID.String()),
	))
	defer func() { finish(span, err) }()

	err = e.store.Atomic(ctx, func(tx Tx) error {
		req, err = tx.Permissions().FindPendingByDocument(ctx, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !visible(caller, req) {
		return nil, permissions.ErrNotFound
	}
	return req, nil
}

func visible(caller identity.Caller, req *permissions.Request) bool {
	return caller.Privileged() || req.RequestedBy == caller.UserID
}

func approvedMessage(action permissions.Action) string {
	return fmt.Sprintf("Your %s request was approved", action)
}

func rejectedMessage(action permissions.Action) string {
	return fmt.Sprintf("Your %s request was rejected", action)
}
