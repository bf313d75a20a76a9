package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by GetList when no cached listing is available.
var ErrMiss = errors.New("cache miss")

// ListCache holds one serialized copy of the image listing. Implementations
// are best-effort: callers fall back to the database on any error.
type ListCache interface {
	GetList(ctx context.Context) ([]byte, error)
	SetList(ctx context.Context, payload []byte) error
	Invalidate(ctx context.Context) error
	Close() error
}

// NoopCache misses on every read and discards every write. Used when no
// cache backend is configured.
type NoopCache struct{}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (c *NoopCache) GetList(ctx context.Context) ([]byte, error) {
	return nil, ErrMiss
}

func (c *NoopCache) SetList(ctx context.Context, payload []byte) error {
	return nil
}

func (c *NoopCache) Invalidate(ctx context.Context) error {
	return nil
}

func (c *NoopCache) Close() error {
	return nil
}
