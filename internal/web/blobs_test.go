package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filedrop/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBlobRoutes(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	blob, err := store.Save(context.Background(), "note.txt", "text/plain", strings.NewReader("hello"), 0)
	require.NoError(t, err)

	e := echo.New()
	RegisterBlobRoutes(e, store)

	t.Run("serves stored blob", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/"+blob.Key, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", rec.Body.String())
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")
	})

	t.Run("missing blob is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/0_missing.txt", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("nested path is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/a/b.txt", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
