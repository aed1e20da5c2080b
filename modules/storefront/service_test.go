package storefront_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagelines/storeapi/common"
	"github.com/pagelines/storeapi/common/model"
	"github.com/pagelines/storeapi/modules/plapi"
	"github.com/pagelines/storeapi/modules/storefront"
)

type mockCreds map[string]string

func (m mockCreds) Credential(name string) string { return m[name] }

type mockAPIClient struct {
	plapi.APIClient
	base       string
	creds      model.Credentials
	cache      map[string][]byte
	fetchCalls int
	fetchURL   string
	body       []byte
}

func newMockAPIClient(body string) *mockAPIClient {
	return &mockAPIClient{base: "api.pagelines.com", cache: map[string][]byte{}, body: []byte(body)}
}

func (m *mockAPIClient) BaseURL() string { return m.base }

func (m *mockAPIClient) WithCredentials(creds model.Credentials) plapi.APIClient {
	m.creds = creds
	return m
}

func (m *mockAPIClient) Get(ctx context.Context, key string, fallback plapi.FetchFunc) []byte {
	if v, ok := m.cache[key]; ok {
		return v
	}
	if fallback == nil {
		return nil
	}
	v := fallback(ctx)
	if len(v) > 0 {
		m.cache[key] = v
	}
	return v
}

func (m *mockAPIClient) Delete(key string) { delete(m.cache, key) }

func (m *mockAPIClient) FetchFunc(urlPath string) plapi.FetchFunc {
	return func(ctx context.Context) []byte {
		m.fetchCalls++
		m.fetchURL = urlPath
		return m.body
	}
}

func TestNewStoreFront_NoSideEffects(t *testing.T) {
	client := newMockAPIClient(`{}`)
	sf := storefront.NewStoreFront(client, mockCreds{"user": "alice", "pass": "pw"})

	if client.fetchCalls != 0 {
		t.Errorf("constructor must not fetch, got %d calls", client.fetchCalls)
	}
	if sf.DataURL() != "api.pagelines.com/v4/all" {
		t.Errorf("unexpected data URL %q", sf.DataURL())
	}
	if client.creds != (model.Credentials{Username: "alice", Password: "pw"}) {
		t.Errorf("unexpected credentials %+v", client.creds)
	}
}

func TestStoreFront_GetLatestCachesFeed(t *testing.T) {
	client := newMockAPIClient(`{"a":1}`)
	sf := storefront.NewStoreFront(client, nil)

	first := sf.GetLatest(context.Background())
	second := sf.GetLatest(context.Background())

	want := map[string]interface{}{"a": float64(1)}
	if !reflect.DeepEqual(first.Object, want) || !reflect.DeepEqual(second.Object, want) {
		t.Errorf("unexpected feeds %+v %+v", first, second)
	}
	if client.fetchCalls != 1 {
		t.Errorf("expected one fetch, got %d", client.fetchCalls)
	}
	if client.fetchURL != "api.pagelines.com/v4/all" {
		t.Errorf("unexpected fetch URL %q", client.fetchURL)
	}
	if _, ok := client.cache[plapi.KeyStoreMixed]; !ok {
		t.Error("expected feed cached under store_mixed")
	}
}

func TestStoreFront_FetchFailureIsEmptyFeed(t *testing.T) {
	client := newMockAPIClient("")
	sf := storefront.NewStoreFront(client, nil)

	feed := sf.GetLatest(context.Background())
	if !feed.IsEmpty() {
		t.Errorf("expected empty feed, got %+v", feed)
	}
}

func TestStoreFront_Bootstrap(t *testing.T) {
	tests := []struct {
		name      string
		draft     model.DraftState
		wantFetch bool
	}{
		{"nil draft", nil, false},
		{"live mode", model.StaticDraft("live"), false},
		{"draft mode", model.StaticDraft("draft"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockAPIClient(`[1,2]`)
			sf := storefront.NewStoreFront(client, nil)

			feed, loaded := sf.Bootstrap(context.Background(), tt.draft)
			if loaded != tt.wantFetch {
				t.Errorf("loaded = %v, want %v", loaded, tt.wantFetch)
			}
			if (client.fetchCalls == 1) != tt.wantFetch {
				t.Errorf("fetch calls = %d", client.fetchCalls)
			}
			if tt.wantFetch && feed.Len() != 2 {
				t.Errorf("expected 2 items, got %+v", feed)
			}
		})
	}
}

func TestStoreFront_RefreshIf(t *testing.T) {
	client := newMockAPIClient(`[1]`)
	sf := storefront.NewStoreFront(client, nil)

	if _, loaded := sf.RefreshIf(context.Background(), false); loaded || client.fetchCalls != 0 {
		t.Error("expected no fetch when condition is false")
	}
	if _, loaded := sf.RefreshIf(context.Background(), true); !loaded || client.fetchCalls != 1 {
		t.Error("expected fetch when condition is true")
	}
}

func TestStoreFront_Flush(t *testing.T) {
	client := newMockAPIClient(`[1]`)
	sf := storefront.NewStoreFront(client, nil)

	sf.GetLatest(context.Background())
	sf.Flush()
	sf.GetLatest(context.Background())

	if client.fetchCalls != 2 {
		t.Errorf("expected refetch after flush, got %d fetches", client.fetchCalls)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantObj   map[string]interface{}
		wantItems []interface{}
	}{
		{"object", `{"a":1}`, map[string]interface{}{"a": float64(1)}, nil},
		{"array", `[1,2]`, nil, []interface{}{float64(1), float64(2)}},
		{"null", `null`, nil, nil},
		{"scalar", `"text"`, nil, nil},
		{"malformed", `{"a":`, nil, nil},
		{"empty", ``, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storefront.Normalize([]byte(tt.in))
			if !reflect.DeepEqual(got.Object, tt.wantObj) {
				t.Errorf("Object = %v, want %v", got.Object, tt.wantObj)
			}
			if !reflect.DeepEqual(got.Items, tt.wantItems) {
				t.Errorf("Items = %v, want %v", got.Items, tt.wantItems)
			}
		})
	}
}

func TestStoreFront_SortIdentityByDefault(t *testing.T) {
	sf := storefront.NewStoreFront(newMockAPIClient(""), nil)

	in := model.Collection{Items: []interface{}{float64(3), float64(1), float64(2)}}
	out := sf.Sort(in)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("expected no reordering, got %v", out.Items)
	}
}

func TestStoreFront_SortWithLess(t *testing.T) {
	less := func(a, b interface{}) bool { return a.(float64) < b.(float64) }
	sf := storefront.NewStoreFront(newMockAPIClient(`[3,1,2]`), nil, storefront.WithLess(less))

	feed := sf.GetLatest(context.Background())
	want := []interface{}{float64(1), float64(2), float64(3)}
	if !reflect.DeepEqual(feed.Items, want) {
		t.Errorf("expected sorted items, got %v", feed.Items)
	}

	obj := model.Collection{Object: map[string]interface{}{"a": 1}}
	if got := sf.Sort(obj); !reflect.DeepEqual(got, obj) {
		t.Errorf("expected object feeds untouched, got %v", got)
	}
}

// End to end: real API client, memory cache, plain HTTP server.
func TestStoreFront_WithAPIClient(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = r.ParseForm()
		if r.URL.Path != "/v4/all" || r.PostForm.Get("username") != "alice" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `[{"slug":"section-a"},{"slug":"section-b"}]`)
	}))
	defer ts.Close()

	host := strings.TrimPrefix(ts.URL, "http://")
	client := plapi.NewAPIClient(host, model.Credentials{}, common.NewCacheStore(),
		plapi.WithSchemes(plapi.SchemeHTTP))
	sf := storefront.NewStoreFront(client, mockCreds{"user": "alice"})

	feed, loaded := sf.Bootstrap(context.Background(), model.StaticDraft(model.DraftMode))
	if !loaded || feed.Len() != 2 {
		t.Fatalf("expected 2 items, got %+v (loaded=%v)", feed, loaded)
	}
	sf.GetLatest(context.Background())
	if n := hits.Load(); n != 1 {
		t.Errorf("expected cached second read, server hit %d times", n)
	}

	cached := plapi.CacheGet(context.Background(), client, plapi.KeyStoreMixed, nil)
	if !strings.Contains(string(cached), "section-a") {
		t.Errorf("expected raw feed cached, got %q", cached)
	}

	client.Put([]byte(`{"replaced":true}`), plapi.KeyStoreMixed, time.Hour)
	if got := sf.GetLatest(context.Background()); got.Object["replaced"] != true {
		t.Errorf("expected cached override to win, got %+v", got)
	}
}
