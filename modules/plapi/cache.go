package plapi

import (
	"context"
	"time"
)

// Well-known cache keys shared with the rest of the host application.
const (
	KeyStoreMixed            = "store_mixed"
	KeyDraftCoreRaw          = "draft_core_raw"
	KeyDraftCoreCompiled     = "draft_core_compiled"
	KeyDraftSectionsCompiled = "draft_sections_compiled"
)

// DraftCacheKeys are the compiled-draft entries invalidated after an edit.
var DraftCacheKeys = []string{
	KeyDraftCoreRaw,
	KeyDraftCoreCompiled,
	KeyDraftSectionsCompiled,
}

// The helpers below accept a possibly-nil client so call sites that run
// before the client is initialised degrade to misses and no-ops.

// CacheGet reads key through c. Returns nil when c is nil.
func CacheGet(ctx context.Context, c APIClient, key string, fallback FetchFunc) []byte {
	if c == nil {
		return nil
	}
	return c.Get(ctx, key, fallback)
}

// CachePut writes data under key through c. No-op when c is nil.
func CachePut(c APIClient, data []byte, key string, ttl time.Duration) {
	if c == nil || key == "" || len(data) == 0 {
		return
	}
	c.Put(data, key, ttl)
}

// CacheDelete removes key through c. No-op when c is nil.
func CacheDelete(c APIClient, key string) {
	if c == nil {
		return
	}
	c.Delete(key)
}

// FlushDraftCaches deletes the compiled-draft entries and nothing else.
func FlushDraftCaches(c APIClient) {
	for _, key := range DraftCacheKeys {
		CacheDelete(c, key)
	}
}
