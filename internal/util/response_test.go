package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		ErrEmptySelection:                    http.StatusUnprocessableEntity,
		ErrOffline:                           http.StatusServiceUnavailable,
		ErrBuildInProgress:                   http.StatusConflict,
		ErrNoActiveSession:                   http.StatusNotFound,
		ErrBundleNotFound:                    http.StatusNotFound,
		ErrInvalidMode:                       http.StatusBadRequest,
		ErrModeMismatch:                      http.StatusConflict,
		ErrPermissionDenied:                  http.StatusForbidden,
		fmt.Errorf("commit: %w", ErrOffline): http.StatusServiceUnavailable,
		errors.New("connection refused"):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleError(c, ErrBundleNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"offline bundle not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleError(c, errors.New("dial tcp: i/o timeout"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}
