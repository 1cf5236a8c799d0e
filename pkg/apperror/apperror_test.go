package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsMatchByKind(t *testing.T) {
	err := fmt.Errorf("load session: %w", NotFound("session"))

	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrConflict)

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "session not found", appErr.Message)
	require.Equal(t, http.StatusNotFound, appErr.Status())
}

func TestValidationJoinsDetails(t *testing.T) {
	details := []string{"grade quiz: unknown grade type", "grade final: mark -1 is negative"}
	err := Validation(details)

	require.Equal(t, "grade quiz: unknown grade type, grade final: mark -1 is negative", err.Error())
	require.Equal(t, details, err.Details)
	require.Equal(t, http.StatusBadRequest, err.Status())

	details[0] = "mutated"
	require.Equal(t, "grade quiz: unknown grade type", err.Details[0])

	require.Equal(t, ErrValidation.Message, Validation(nil).Message)
}

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		InvalidReference("student_id"):   http.StatusBadRequest,
		Conflict("already enrolled"):     http.StatusConflict,
		Forbidden("not a member"):        http.StatusForbidden,
		Internal(errors.New("boom"), ""): http.StatusInternalServerError,
	}
	for err, status := range cases {
		require.Equal(t, status, err.Status(), err.Kind)
	}

	var nilErr *Error
	require.Equal(t, http.StatusInternalServerError, nilErr.Status())
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	require.Nil(t, FromError(nil))

	cause := errors.New("connection reset")
	wrapped := FromError(cause)
	require.Equal(t, KindInternal, wrapped.Kind)
	require.ErrorIs(t, wrapped, cause)

	typed := Conflict("version mismatch")
	require.Same(t, typed, FromError(fmt.Errorf("update: %w", typed)))
}
