package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("create order: %w", NotFound("product %s not found", "abc"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:          http.StatusNotFound,
		KindValidation:        http.StatusBadRequest,
		KindInsufficientStock: http.StatusBadRequest,
		KindUnauthorized:      http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindConflict:          http.StatusConflict,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause, "db error")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "db error: connection refused", err.Error())
}
