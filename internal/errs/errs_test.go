package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/custodian/internal/errs"
)

func TestIsMatchesKindSentinels(t *testing.T) {
	locked := errs.Conflict("document is locked")
	wrapped := fmt.Errorf("request replace: %w", locked)

	assert.ErrorIs(t, wrapped, errs.ErrConflict)
	assert.ErrorIs(t, wrapped, locked)
	assert.NotErrorIs(t, wrapped, errs.ErrNotFound)
	assert.NotErrorIs(t, wrapped, errs.Conflict("document is locked"), "distinct values must not match")
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Equal(t, "not_found", (&errs.Error{Kind: errs.KindNotFound}).Error())
	assert.Equal(t, "upload failed: dial tcp: refused", errs.Storage("upload failed", cause).Error())
	assert.ErrorIs(t, errs.Storage("upload failed", cause), cause)
}

func TestPersist(t *testing.T) {
	assert.NoError(t, errs.Persist(nil))

	classified := errs.NotFound("document not found")
	assert.Same(t, classified, errs.Persist(classified))

	raw := errors.New("connection reset")
	got := errs.Persist(raw)
	assert.ErrorIs(t, got, errs.ErrPersistence)
	assert.ErrorIs(t, got, raw)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.Validation("title required"), http.StatusBadRequest},
		{errs.NotFound("missing"), http.StatusNotFound},
		{errs.Conflict("locked"), http.StatusConflict},
		{errs.Forbidden("nope"), http.StatusForbidden},
		{errs.Storage("blob", nil), http.StatusBadGateway},
		{errs.Persistence("db", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", errs.Conflict("locked")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, errs.HTTPStatus(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "storage", errs.KindStorage.String())
	assert.Equal(t, "unknown", errs.Kind(99).String())
	assert.Equal(t, errs.KindUnknown, errs.KindOf(errors.New("plain")))
}
