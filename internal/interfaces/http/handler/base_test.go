package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/infrastructure/validation"
	"github.com/zeniva/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func serveError(err error) *httptest.ResponseRecorder {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/", func(c *gin.Context) { h.HandleError(c, err) })
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", shared.NewDomainError("FORBIDDEN", "no"), http.StatusForbidden, "FORBIDDEN"},
		{"invalid prefix", shared.NewDomainError("INVALID_CONTENT_TYPE", "no"), http.StatusBadRequest, "INVALID_CONTENT_TYPE"},
		{"already prefix", shared.NewDomainError("ALREADY_EXISTS", "taken"), http.StatusConflict, "ALREADY_EXISTS"},
		{"file too large", shared.NewDomainError("FILE_TOO_LARGE", "big"), http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveError(tt.err)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	t.Run("internal details are hidden", func(t *testing.T) {
		w := serveError(errors.New("pq: connection refused"))
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		in := struct {
			Email string `json:"email" validate:"required,email"`
			Name  string `json:"name" validate:"required"`
		}{Email: "nope"}

		w := serveError(validation.Struct(in))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
		assert.ElementsMatch(t, []dto.ValidationDetail{
			{Field: "email", Message: "Invalid email format"},
			{Field: "name", Message: "This field is required"},
		}, resp.Error.Details)
	})
}

func TestBaseHandler_Params(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/trips/:id", func(c *gin.Context) {
		id, ok := h.uuidParam(c, "id")
		if !ok {
			return
		}
		client, ok := h.uuidQuery(c, "client_id")
		if !ok {
			return
		}
		h.Success(c, gin.H{"id": id, "client_set": client != nil})
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"valid id", "/trips/6f1c1f4e-4d3b-4b53-9a53-2f0f7c1f5a10", http.StatusOK},
		{"valid id and query", "/trips/6f1c1f4e-4d3b-4b53-9a53-2f0f7c1f5a10?client_id=2b0c7f3a-9a51-4bd4-8a4e-1c2f0a9d7e11", http.StatusOK},
		{"bad id", "/trips/42", http.StatusBadRequest},
		{"bad query", "/trips/6f1c1f4e-4d3b-4b53-9a53-2f0f7c1f5a10?client_id=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestBaseHandler_PrincipalRequired(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		if _, ok := h.principal(c); ok {
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
