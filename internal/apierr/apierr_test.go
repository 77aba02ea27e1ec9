package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err        *Error
		wantStatus int
		wantCode   string
	}{
		{SessionNotFound("sess-00000001"), http.StatusNotFound, "SESSION_NOT_FOUND"},
		{SessionExists("sess-00000001"), http.StatusConflict, "INVALID_STATE"},
		{NotExecutable("Terminated"), http.StatusConflict, "INVALID_STATE"},
		{InvalidStateTransition("Created", "Idle"), http.StatusConflict, "INVALID_STATE"},
		{BadRequest("bad"), http.StatusBadRequest, "BAD_REQUEST"},
		{ParseError(errors.New("boom")), http.StatusBadRequest, "PARSE_ERROR"},
		{ExecutionFailed("boom"), http.StatusInternalServerError, "EXECUTION_ERROR"},
		{LockPoisoned(), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{Pty(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.wantStatus, tc.err.Status())
		assert.Equal(t, tc.wantCode, tc.err.Code())
	}
}

func TestErrorDetailsIncludeWrapped(t *testing.T) {
	wrapped := errors.New("underlying failure")
	e := Pty(wrapped)
	assert.Contains(t, e.Error(), "underlying failure")
	assert.ErrorIs(t, e, wrapped)
}

func TestAsExtractsTaxonomyType(t *testing.T) {
	var target *Error
	ok := As(SessionNotFound("x"), &target)
	assert.True(t, ok)
	assert.Equal(t, KindSessionNotFound, target.Kind)

	ok = As(errors.New("plain"), &target)
	assert.False(t, ok)
}
