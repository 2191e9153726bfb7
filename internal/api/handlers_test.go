package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filedrop/backend/internal/metrics"
	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/storage"
	"github.com/filedrop/backend/internal/testutil"
	"github.com/filedrop/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, maxSize int64) (*echo.Echo, *testutil.MockRepository) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	repo := testutil.NewMockRepository()
	deps := &Dependencies{
		Service:     upload.NewService(store, repo, maxSize, metrics.New(reg), nil),
		Blobs:       store,
		Gatherer:    reg,
		UploadLimit: "5MB",
		Version:     "test",
	}

	e := echo.New()
	SetupMiddleware(e, MiddlewareConfig{BodyLimit: "1M"})
	RegisterRoutes(e, NewHandlers(deps), deps)
	return e, repo
}

func TestUploadFlow(t *testing.T) {
	e, _ := newTestServer(t, 1024)

	body, ct := multipartBody(t, "file", "hello.txt", []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/dashboard/", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.True(t, strings.HasPrefix(uploaded.Data.Path, "uploads/"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	// listing includes the record
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listing models.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Response, 1)
	assert.Equal(t, uploaded.Data.ID, listing.Response[0].ID)

	// the stored blob is served under its path
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+uploaded.Data.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())

	// metrics reflect the upload
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `filedrop_uploads_total{result="stored"} 1`)
}

func TestUploadWithoutSlash(t *testing.T) {
	e, repo := newTestServer(t, 0)

	body, ct := multipartBody(t, "file", "a.txt", []byte("a"))
	req := httptest.NewRequest(http.MethodPost, "/dashboard", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.Len())
}

func TestErrorResponses(t *testing.T) {
	t.Run("missing file renders a 400 body", func(t *testing.T) {
		e, _ := newTestServer(t, 0)
		body, ct := multipartBody(t, "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/dashboard/", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp["code"])
		assert.NotEmpty(t, resp["error"])
	})

	t.Run("non-multipart body renders 400", func(t *testing.T) {
		e, _ := newTestServer(t, 0)
		req := httptest.NewRequest(http.MethodPost, "/dashboard/", strings.NewReader(`{"file":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
	})

	t.Run("long filename renders a 400 path error", func(t *testing.T) {
		for _, n := range []int{244, 254, 304} {
			e, repo := newTestServer(t, 0)
			body, ct := multipartBody(t, "file", strings.Repeat("n", n)+".txt", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/dashboard/", body)
			req.Header.Set(echo.HeaderContentType, ct)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, "name length %d", n)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
			assert.Contains(t, rec.Body.String(), "path")
			assert.Equal(t, 0, repo.Len())
		}
	})

	t.Run("oversize file renders 413", func(t *testing.T) {
		e, repo := newTestServer(t, 8)
		body, ct := multipartBody(t, "file", "big.txt", []byte("0123456789"))
		req := httptest.NewRequest(http.MethodPost, "/dashboard/", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE_TOO_LARGE")
		assert.Equal(t, 0, repo.Len())
	})

	t.Run("listing failure renders 500 without details", func(t *testing.T) {
		e, repo := newTestServer(t, 0)
		repo.FailList = errors.New("secret connection string")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/dashboard", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
		assert.NotContains(t, rec.Body.String(), "secret connection string")
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		e, _ := newTestServer(t, 0)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})
}

func TestHealthAndRoot(t *testing.T) {
	e, _ := newTestServer(t, 0)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Greeting, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, rec.Body.String())
}

func TestNewErrorHandler_UnknownError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewErrorHandler(nil, true)(errors.New("boom"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_ERROR", resp.Code)
	assert.Equal(t, "boom", resp.Details)
}

func TestSetupMiddleware_CORS(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e, MiddlewareConfig{EnableCORS: true})
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderOrigin, "http://example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
