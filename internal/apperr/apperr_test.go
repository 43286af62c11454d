package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/antonkh/kupid/internal/apperr"
)

func TestIsPolicyDenied(t *testing.T) {
	err := apperr.Denied("too many changes")
	reason, ok := apperr.IsPolicyDenied(err)
	assert.True(t, ok)
	assert.Equal(t, "too many changes", reason)

	// survives wrapping
	wrapped := fmt.Errorf("update name: %w", err)
	reason, ok = apperr.IsPolicyDenied(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "too many changes", reason)

	_, ok = apperr.IsPolicyDenied(errors.New("plain"))
	assert.False(t, ok)
}

func TestStoreWrapsAndPreserves(t *testing.T) {
	assert.NoError(t, apperr.Store("get", nil))

	err := apperr.Store("get profile", gorm.ErrRecordNotFound)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "get profile")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":        {nil, http.StatusOK},
		"not_found":  {apperr.ErrProfileNotFound, http.StatusNotFound},
		"gorm_miss":  {apperr.Store("get", gorm.ErrRecordNotFound), http.StatusNotFound},
		"unverified": {apperr.ErrNotVerified, http.StatusForbidden},
		"policy":     {apperr.Denied("quota"), http.StatusTooManyRequests},
		"validation": {apperr.Invalid("age", "out of range"), http.StatusBadRequest},
		"deadline":   {context.DeadlineExceeded, http.StatusGatewayTimeout},
		"canceled":   {context.Canceled, http.StatusRequestTimeout},
		"unknown":    {errors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperr.HTTPStatus(tc.err))
		})
	}
}
