package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	t.Run("from context", func(t *testing.T) {
		c, _ := testContext()
		c.Set("request_id", "ctx-id")
		c.Request.Header.Set("X-Request-ID", "header-id")
		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("falls back to header", func(t *testing.T) {
		c, _ := testContext()
		c.Request.Header.Set("X-Request-ID", "header-id")
		assert.Equal(t, "header-id", getRequestID(c))
	})

	t.Run("empty when absent", func(t *testing.T) {
		c, _ := testContext()
		assert.Empty(t, getRequestID(c))
	})
}

func TestHandleError(t *testing.T) {
	h := BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"business rule", shared.NewDomainError("UNBALANCED_TRANSACTION", "sum mismatch"), http.StatusUnprocessableEntity},
		{"wrapped domain error", fmt.Errorf("posting: %w", shared.NewDomainError("UNKNOWN_ACCOUNT", "no such account")), http.StatusUnprocessableEntity},
		{"invalid prefix fallback", shared.NewDomainError("INVALID_SOMETHING", "bad input"), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext()
			h.HandleError(c, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleError_NilIsNoop(t *testing.T) {
	h := BaseHandler{}
	c, w := testContext()
	h.HandleError(c, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
