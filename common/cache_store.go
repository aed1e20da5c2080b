package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration = time.Hour
	cleanupInterval   = 10 * time.Minute
)

var _ CacheRepository = (*cacheStore)(nil)

type cacheStore struct {
	cache *cache.Cache
}

// NewCacheStore returns a process-local CacheRepository. Entries live as long
// as the process does.
func NewCacheStore() CacheRepository {
	return &cacheStore{
		cache: cache.New(DefaultExpiration, cleanupInterval),
	}
}

func (c *cacheStore) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	b, ok := value.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (c *cacheStore) Delete(key string) {
	c.cache.Delete(key)
}

func (c *cacheStore) Set(key string, value []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	c.cache.Set(key, append([]byte(nil), value...), expiration)
}
