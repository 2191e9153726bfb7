// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// UploadHandler handles file upload and listing
type UploadHandler interface {
	HandleUpload(c echo.Context) error
	HandleList(c echo.Context) error
}

// HealthHandler handles health check and greeting
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandleRoot(c echo.Context) error
}
