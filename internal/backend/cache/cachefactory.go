package cache

import "fmt"

func NewCache(cacheType, address string) (ListCache, error) {
	switch cacheType {
	case "", "none":
		return NewNoopCache(), nil
	case "redis":
		listCache, err := NewRedisCache(address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", address, err)
		}
		return listCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}
