package permissions

import (
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Domain errors for permission request operations.
var (
	ErrNotFound      = errs.NotFound("permission request not found")
	ErrPendingExists = errs.Conflict("pending request exists")
	ErrInvalidAction = errs.Validation("invalid action")
	ErrInvalidID     = errs.Validation("invalid request id")
)

func mapError(err error) error {
	return errs.Persist(repository.MapError(err, ErrNotFound, ErrPendingExists))
}
