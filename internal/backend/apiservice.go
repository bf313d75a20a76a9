package backend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/imagevault/internal/core"
	"github.com/labstack/echo/v4"
)

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

// messageResponse is the confirmation/error body shape of the record API.
type messageResponse struct {
	Message string `json:"message"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Probe route, also the static welcome surface
	e.GET("/", s.welcomeHandler)

	e.POST("/api/images", s.uploadImageHandler)
	e.GET("/api/images", s.listImagesHandler)
	e.DELETE("/api/images/:id", s.deleteImageHandler)

	// Blob read path; blobs are served byte-for-byte
	e.GET("/uploads/:filename", s.serveBlobHandler)
}

func (s *APIService) welcomeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to ImageVault API")
}

func (s *APIService) uploadImageHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Error("uploadImageHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, messageResponse{Message: "No image file provided"})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("uploadImageHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to open uploaded file"})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("uploadImageHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	image, err := s.coreService.AddImage(ctx.Request().Context(), file.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotAnImage):
			slog.Warn("uploadImageHandler: rejected non-image upload",
				"status", http.StatusBadRequest, "filename", file.Filename)
			return ctx.JSON(http.StatusBadRequest, messageResponse{Message: "Only image files are allowed"})
		case errors.Is(err, core.ErrTooLarge):
			slog.Warn("uploadImageHandler: rejected oversized upload",
				"status", http.StatusBadRequest, "filename", file.Filename, "size", file.Size)
			return ctx.JSON(http.StatusBadRequest, messageResponse{Message: "Image must be less than 5MB"})
		default:
			slog.Error("uploadImageHandler: failed to store uploaded image",
				"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
			return ctx.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to store image"})
		}
	}

	return ctx.JSON(http.StatusCreated, image)
}

func (s *APIService) listImagesHandler(ctx echo.Context) error {
	payload, err := s.coreService.ListImagesJSON(ctx.Request().Context())
	if err != nil {
		slog.Error("listImagesHandler: failed to list images",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to list images"})
	}
	return ctx.JSONBlob(http.StatusOK, payload)
}

func (s *APIService) deleteImageHandler(ctx echo.Context) error {
	id := ctx.Param("id")

	err := s.coreService.DeleteImage(ctx.Request().Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		slog.Warn("deleteImageHandler: image not found",
			"status", http.StatusNotFound, "image_id", id)
		return ctx.JSON(http.StatusNotFound, messageResponse{Message: "Not found"})
	}
	if err != nil {
		slog.Error("deleteImageHandler: failed to delete image",
			"status", http.StatusInternalServerError, "image_id", id, "error", err)
		return ctx.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to delete image"})
	}

	return ctx.JSON(http.StatusOK, messageResponse{Message: "Image deleted"})
}

func (s *APIService) serveBlobHandler(ctx echo.Context) error {
	filename := ctx.Param("filename")

	reader, contentType, err := s.coreService.OpenBlob(filename)
	if errors.Is(err, core.ErrNotFound) {
		return ctx.String(http.StatusNotFound, "Not found")
	}
	if err != nil {
		slog.Error("serveBlobHandler: failed to open blob",
			"status", http.StatusInternalServerError, "filename", filename, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to read image")
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			slog.Error("serveBlobHandler: failed to close blob reader", "error", cerr, "filename", filename)
		}
	}()

	return ctx.Stream(http.StatusOK, contentType, reader)
}
