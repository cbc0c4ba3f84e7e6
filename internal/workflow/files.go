package workflow

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/pkg/storage"
)

// purgeSet groups the files released by a committed change. Phases are
// deleted in order: versions, then the document's current file, then
// files staged by pending requests.
type purgeSet struct {
	versions []string
	document string
	staged   []string
}

func (p purgeSet) phases() [][]string {
	seen := make(map[string]struct{})
	unique := func(refs ...string) []string {
		out := make([]string, 0, len(refs))
		for _, ref := range refs {
			if ref == "" {
				continue
			}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
		return out
	}

	return [][]string{
		unique(p.versions...),
		unique(p.document),
		unique(p.staged...),
	}
}

// purge deletes the files in refs, detached from ctx's cancellation.
// Failures are logged and not retried.
func (e *engine) purge(ctx context.Context, refs purgeSet) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cleanupTimeout)
	defer cancel()

	for _, phase := range refs.phases() {
		if len(phase) == 0 {
			continue
		}

		var g errgroup.Group
		g.SetLimit(e.cleanupConcurrency)

		for _, ref := range phase {
			g.Go(func() error {
				e.deleteFile(ctx, ref)
				return nil
			})
		}

		g.Wait()
	}
}

// discard removes a file uploaded for an operation that did not succeed.
func (e *engine) discard(ctx context.Context, file *documents.File) {
	if file == nil || file.Ref == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cleanupTimeout)
	defer cancel()

	e.deleteFile(ctx, file.Ref)
}

// discardOnError is deferred by operations that take ownership of an
// uploaded file. The original error is always preserved.
func (e *engine) discardOnError(ctx context.Context, err *error, file *documents.File) {
	if *err != nil {
		e.discard(ctx, file)
	}
}

func (e *engine) deleteFile(ctx context.Context, ref string) {
	err := e.files.Delete(ctx, ref)
	switch {
	case err == nil:
		e.logger.Debug("file deleted", zap.String("ref", ref))
	case errors.Is(err, storage.ErrNotFound):
		e.logger.Debug("file already absent", zap.String("ref", ref))
	default:
		e.logger.Warn("file delete failed", zap.String("ref", ref), zap.Error(err))
	}
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
