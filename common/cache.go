package common

import "time"

// CacheRepository defines a minimal interface for a key/value cache with
// per-entry expiry. Values are stored as raw []byte, typically the JSON body
// returned by the remote API.
//
// Implementations never report errors to the caller: a backend failure is
// indistinguishable from a miss. A non-positive expiration stores the value
// without expiry.
//
// Two backends ship with this package:
//   - an in-memory store (NewCacheStore)
//   - Redis (NewRedisStore)
type CacheRepository interface {
	Get(key string) (value []byte, found bool)
	Set(key string, value []byte, expiration time.Duration)
	Delete(key string)
}
