package frontend

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/imagevault/internal/core"
	"github.com/labstack/echo/v4"
)

type FrontendService struct {
	config *core.ServiceConfig
}

// pageData is passed to every view template.
type pageData struct {
	// AdminPassword is compared in the browser. Anyone can read it from the
	// page source; it is a convenience gate, not access control.
	AdminPassword string
	MaxUploadMiB  int
}

func NewFrontendService(config *core.ServiceConfig) *FrontendService {
	return &FrontendService{
		config: config,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	// Create template renderer
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(viewsFS, viewsPattern)),
	}

	e.GET("/home", service.viewHandler("home.html"))
	e.GET("/upload", service.viewHandler("upload.html"))
	e.GET("/gallery", service.viewHandler("gallery.html"))

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) viewHandler(name string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Render(http.StatusOK, name, pageData{
			AdminPassword: service.config.AdminPassword,
			MaxUploadMiB:  core.MaxUploadBytes >> 20,
		})
	}
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := viewsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}
