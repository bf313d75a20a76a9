package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jo-hoe/imagevault/internal/backend/blobstore"
	"github.com/jo-hoe/imagevault/internal/backend/cache"
	"github.com/jo-hoe/imagevault/internal/backend/database"
)

// MaxUploadBytes is the upload size limit enforced on the server. The client
// applies the same limit before sending.
const MaxUploadBytes = 5 << 20 // 5 MiB

var (
	// ErrNotFound covers both a missing record and a missing blob.
	ErrNotFound = errors.New("image not found")
	// ErrNotAnImage is returned when the uploaded content does not sniff as image/*.
	ErrNotAnImage = errors.New("uploaded file is not an image")
	// ErrTooLarge is returned when an upload exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("uploaded file exceeds the size limit")
)

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	blobStore       *blobstore.Store
	listCache       cache.ListCache
}

func NewCoreService(config *ServiceConfig) *CoreService {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		slog.Error("failed to initialize database service", "error", err)
		panic(err)
	}
	blobStore, err := blobstore.NewStore(config.UploadsDir)
	if err != nil {
		slog.Error("failed to initialize blob store", "error", err, "directory", config.UploadsDir)
		panic(err)
	}
	listCache, err := cache.NewCache(config.Cache.Type, config.Cache.Address)
	if err != nil {
		slog.Error("failed to initialize list cache", "error", err, "type", config.Cache.Type)
		panic(err)
	}
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		blobStore:       blobStore,
		listCache:       listCache,
	}
}

// AddImage validates the upload, stores the bytes as a blob and records the
// metadata. When the metadata insert fails the just-written blob is removed
// again so the two stores stay consistent.
func (service *CoreService) AddImage(ctx context.Context, originalName string, r io.Reader) (*database.Image, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(content) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(content), "image/") {
		return nil, ErrNotAnImage
	}

	storedName, err := service.blobStore.Save(originalName, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	image, err := service.databaseService.CreateImage(storedName)
	if err != nil {
		// Compensating action: without the record the blob is unreachable
		if removeErr := service.blobStore.Delete(storedName); removeErr != nil {
			slog.Warn("failed to remove blob after metadata insert failure",
				"filename", storedName, "error", removeErr)
		}
		return nil, fmt.Errorf("failed to record image metadata: %w", err)
	}

	service.invalidateListCache(ctx)
	return image, nil
}

// ListImagesJSON returns the serialized image listing, newest first, serving
// from the cache when one is configured.
func (service *CoreService) ListImagesJSON(ctx context.Context) ([]byte, error) {
	if payload, err := service.listCache.GetList(ctx); err == nil {
		return payload, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("list cache read failed, falling back to database", "error", err)
	}

	images, err := service.databaseService.GetAllImages()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if images == nil {
		// An empty gallery must serialize as [], not null
		images = []*database.Image{}
	}

	payload, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize image list: %w", err)
	}

	if err := service.listCache.SetList(ctx, payload); err != nil {
		slog.Warn("list cache write failed", "error", err)
	}
	return payload, nil
}

// DeleteImage removes the blob and then the metadata record. A blob that is
// already gone counts as deleted; the record is removed regardless.
func (service *CoreService) DeleteImage(ctx context.Context, id string) error {
	image, err := service.databaseService.GetImageByID(id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up image %s: %w", id, err)
	}

	if err := service.blobStore.Delete(image.Filename); err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("failed to delete blob %s: %w", image.Filename, err)
		}
		slog.Info("blob already absent, removing metadata anyway",
			"image_id", id, "filename", image.Filename)
	}

	if err := service.databaseService.DeleteImage(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Lost a race against a concurrent delete of the same id
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete metadata for image %s: %w", id, err)
	}

	service.invalidateListCache(ctx)
	return nil
}

// OpenBlob returns the content and sniffed content type of a stored blob.
// The caller owns closing the reader.
func (service *CoreService) OpenBlob(filename string) (io.ReadCloser, string, error) {
	reader, contentType, err := service.blobStore.Open(filename)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) ||
			errors.Is(err, blobstore.ErrInvalidName) ||
			errors.Is(err, blobstore.ErrEmptyName) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return reader, contentType, nil
}

func (service *CoreService) Close() error {
	cacheErr := service.listCache.Close()
	if err := service.databaseService.Close(); err != nil {
		return err
	}
	return cacheErr
}

func (service *CoreService) invalidateListCache(ctx context.Context) {
	if err := service.listCache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate list cache", "error", err)
	}
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if !databaseService.DoesDatabaseExist() {
		_ = databaseService.Close()
		return nil, fmt.Errorf("database %s is not reachable", config.Database.ConnectionString)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}
