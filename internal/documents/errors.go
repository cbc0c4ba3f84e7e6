package documents

import (
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Domain errors for document operations.
var (
	ErrNotFound      = errs.NotFound("document not found")
	ErrDuplicate     = errs.Conflict("document already exists")
	ErrInvalidStatus = errs.Validation("invalid document status")
	ErrInvalidID     = errs.Validation("invalid document id")
)

func mapError(err error) error {
	return errs.Persist(repository.MapError(err, ErrNotFound, ErrDuplicate))
}
