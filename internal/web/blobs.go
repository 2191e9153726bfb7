// Package web serves stored upload blobs over HTTP.
package web

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/filedrop/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// RegisterBlobRoutes exposes every blob of store at /uploads/<name>.
func RegisterBlobRoutes(e *echo.Echo, store storage.BlobStore) {
	e.GET("/"+storage.KeyPrefix+"/*", func(c echo.Context) error {
		name := c.Param("*")
		if name == "" || strings.Contains(name, "/") {
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}

		rc, err := store.Open(c.Request().Context(), storage.KeyFor(name))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "file not found")
			}
			return err
		}
		defer rc.Close()

		return c.Stream(http.StatusOK, contentType(name), rc)
	})
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return echo.MIMEOctetStream
}
