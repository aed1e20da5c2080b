package storefront

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pagelines/storeapi/common/model"
	"github.com/pagelines/storeapi/modules/plapi"
)

// DataPath is appended to the API host to form the feed URL.
const DataPath = "/v4/all"

// StoreFront fetches and organizes the latest items from the store feed.
type StoreFront interface {
	// Bootstrap loads the feed when draft is in draft mode. The bool reports
	// whether a load happened.
	Bootstrap(ctx context.Context, draft model.DraftState) (model.Collection, bool)
	RefreshIf(ctx context.Context, cond bool) (model.Collection, bool)
	// GetLatest returns the feed, from cache when possible.
	GetLatest(ctx context.Context) model.Collection
	Sort(data model.Collection) model.Collection
	// Flush drops the cached feed so the next GetLatest refetches.
	Flush()
	DataURL() string
}

// LessFunc orders two feed items.
type LessFunc func(a, b interface{}) bool

type storeFront struct {
	client  plapi.APIClient
	dataURL string
	less    LessFunc
	logger  *slog.Logger
}

// Option configures a StoreFront.
type Option func(*storeFront)

// WithLess installs a comparator used by Sort on array feeds. Without one,
// Sort leaves the feed as received.
func WithLess(less LessFunc) Option {
	return func(s *storeFront) {
		s.less = less
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *storeFront) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStoreFront builds a StoreFront on client, sending the credentials found
// in creds. It performs no I/O.
func NewStoreFront(client plapi.APIClient, creds model.CredentialSource, opts ...Option) StoreFront {
	s := &storeFront{
		client:  client.WithCredentials(model.CredentialsFrom(creds)),
		dataURL: client.BaseURL() + DataPath,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *storeFront) DataURL() string {
	return s.dataURL
}

func (s *storeFront) Bootstrap(ctx context.Context, draft model.DraftState) (model.Collection, bool) {
	return s.RefreshIf(ctx, model.IsDraft(draft))
}

func (s *storeFront) RefreshIf(ctx context.Context, cond bool) (model.Collection, bool) {
	if !cond {
		return model.Collection{}, false
	}
	return s.GetLatest(ctx), true
}

func (s *storeFront) GetLatest(ctx context.Context) model.Collection {
	data := s.client.Get(ctx, plapi.KeyStoreMixed, s.client.FetchFunc(s.dataURL))
	feed := Normalize(data)
	if feed.IsEmpty() {
		s.logger.Debug("store feed is empty", "url", s.dataURL, "bytes", len(data))
	}
	return s.Sort(feed)
}

func (s *storeFront) Sort(data model.Collection) model.Collection {
	if s.less == nil || len(data.Items) < 2 {
		return data
	}
	items := append([]interface{}(nil), data.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return s.less(items[i], items[j])
	})
	data.Items = items
	return data
}

func (s *storeFront) Flush() {
	s.client.Delete(plapi.KeyStoreMixed)
}

// Normalize decodes raw JSON into a Collection. Objects become Object, arrays
// become Items, and anything else (null, scalars, malformed input) yields an
// empty Collection.
func Normalize(raw []byte) model.Collection {
	if len(raw) == 0 {
		return model.Collection{}
	}
	var decoded interface{}
	if err := model.JSONUnmarshal(raw, &decoded); err != nil {
		return model.Collection{}
	}
	switch v := decoded.(type) {
	case map[string]interface{}:
		return model.Collection{Object: v}
	case []interface{}:
		return model.Collection{Items: v}
	default:
		return model.Collection{}
	}
}
