package plapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pagelines/storeapi/common"
	"github.com/pagelines/storeapi/common/model"
)

const (
	// KeyPrefix namespaces every key this client writes to the cache store.
	KeyPrefix = "plapi_"

	// DefaultTTL is how long fetched and written entries live by default.
	DefaultTTL = 3600 * time.Second

	// DefaultTimeout applies to PostWithFallback when the caller sets none.
	DefaultTimeout = 5 * time.Second

	// FetchTimeout applies to FetchJSON.
	FetchTimeout = 15 * time.Second

	SchemeHTTPS = "https://"
	SchemeHTTP  = "http://"
)

// ErrAllSchemesFailed is returned by PostWithFallback when no scheme produced
// a response.
var ErrAllSchemesFailed = errors.New("plapi: all schemes failed")

// FetchFunc produces a value on a cache miss. An empty result is not cached.
type FetchFunc func(ctx context.Context) []byte

// RequestOptions controls a single PostWithFallback call. Zero fields take
// the defaults: no TLS verification, DefaultTimeout, empty body.
type RequestOptions struct {
	SSLVerify bool
	Timeout   time.Duration
	Body      url.Values
}

// APIClient handles all interaction with the remote store API and its cache.
type APIClient interface {
	// Get returns the cached value for key. On a miss it calls fallback (if
	// non-nil) once and caches a non-empty result for the default TTL.
	Get(ctx context.Context, key string, fallback FetchFunc) []byte
	// Put stores value under key for ttl. Empty values or keys are ignored.
	Put(value []byte, key string, ttl time.Duration)
	Delete(key string)

	FetchJSON(ctx context.Context, urlPath string) []byte
	FetchFunc(urlPath string) FetchFunc
	PostWithFallback(ctx context.Context, urlPath string, opts RequestOptions) (*model.Response, error)

	// BaseURL is the API host without scheme, e.g. "api.pagelines.com".
	BaseURL() string
	// WithCredentials returns a client sharing this one's cache and
	// transport but sending creds.
	WithCredentials(creds model.Credentials) APIClient
	CloseIdleConnections()
}

type apiClient struct {
	host            string
	creds           model.Credentials
	schemes         []string
	secureTransport bool
	userAgent       string
	token           string
	defaultTTL      time.Duration

	httpClient     common.HttpClient // verifies TLS
	insecureClient common.HttpClient // skips TLS verification
	cache          common.CacheRepository
	logger         *slog.Logger
}

// Option configures an APIClient.
type Option func(*apiClient)

// WithSchemes overrides the order of URL schemes attempted.
func WithSchemes(schemes ...string) Option {
	return func(c *apiClient) {
		if len(schemes) > 0 {
			c.schemes = append([]string(nil), schemes...)
		}
	}
}

// WithSecureTransport declares whether HTTPS is usable in this environment.
// When false, HTTPS attempts are skipped.
func WithSecureTransport(available bool) Option {
	return func(c *apiClient) {
		c.secureTransport = available
	}
}

// WithHttpClients sets the clients used for TLS-verified and unverified
// requests. A nil argument keeps the default for that mode.
func WithHttpClients(verified, insecure common.HttpClient) Option {
	return func(c *apiClient) {
		if verified != nil {
			c.httpClient = verified
		}
		if insecure != nil {
			c.insecureClient = insecure
		}
	}
}

// WithDefaultTTL sets how long values fetched on a miss are cached.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *apiClient) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithUserAgent sets the User-Agent of the default HTTP clients.
func WithUserAgent(ua string) Option {
	return func(c *apiClient) {
		c.userAgent = ua
	}
}

// WithToken attaches a static bearer token to the default HTTP clients.
func WithToken(token string) Option {
	return func(c *apiClient) {
		c.token = token
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *apiClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewAPIClient creates an APIClient for host (no scheme), caching into cache.
func NewAPIClient(host string, creds model.Credentials, cache common.CacheRepository, opts ...Option) APIClient {
	c := &apiClient{
		host:            strings.TrimRight(host, "/"),
		creds:           creds,
		schemes:         []string{SchemeHTTPS, SchemeHTTP},
		secureTransport: true,
		userAgent:       common.DefaultUserAgent,
		defaultTTL:      DefaultTTL,
		cache:           cache,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = c.newHttpClient(true)
	}
	if c.insecureClient == nil {
		c.insecureClient = c.newHttpClient(false)
	}
	return c
}

// NewAPIClientFromConfig wires an APIClient from cfg.
func NewAPIClientFromConfig(cfg *common.Config, cache common.CacheRepository, logger *slog.Logger) APIClient {
	return NewAPIClient(cfg.Host, model.CredentialsFrom(cfg), cache,
		WithSchemes(cfg.Schemes...),
		WithSecureTransport(cfg.SecureTransportAvailable()),
		WithUserAgent(cfg.UserAgent),
		WithToken(cfg.Token),
		WithDefaultTTL(cfg.Cache.DefaultTTL),
		WithLogger(logger),
	)
}

func (c *apiClient) newHttpClient(verifyTLS bool) common.HttpClient {
	transport := common.NewBearerTransport(common.NewTransport(verifyTLS), c.token)
	return common.NewHttpClient(c.userAgent, &http.Client{Transport: transport})
}

// ---------------------------------------------------
// Cache accessors
// ---------------------------------------------------

func cacheKey(key string) string {
	return KeyPrefix + key
}

func (c *apiClient) Get(ctx context.Context, key string, fallback FetchFunc) []byte {
	if data, found := c.cache.Get(cacheKey(key)); found {
		return data
	}
	if fallback == nil {
		return nil
	}

	c.logger.Debug("cache miss, fetching", "key", key)
	data := fallback(ctx)
	if len(data) > 0 {
		c.Put(data, key, c.defaultTTL)
	}
	return data
}

func (c *apiClient) Put(value []byte, key string, ttl time.Duration) {
	if len(value) == 0 || key == "" {
		return
	}
	c.cache.Set(cacheKey(key), value, ttl)
}

func (c *apiClient) Delete(key string) {
	c.cache.Delete(cacheKey(key))
}

// ---------------------------------------------------
// Remote fetch
// ---------------------------------------------------

func (c *apiClient) BaseURL() string {
	return c.host
}

func (c *apiClient) WithCredentials(creds model.Credentials) APIClient {
	clone := *c
	clone.creds = creds
	return &clone
}

func (c *apiClient) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
	c.insecureClient.CloseIdleConnections()
}

// FetchJSON POSTs the credentials to urlPath and returns the response body,
// or nil if every scheme failed.
func (c *apiClient) FetchJSON(ctx context.Context, urlPath string) []byte {
	body := url.Values{}
	if c.creds.Username != "" {
		body.Set("username", c.creds.Username)
	}
	if c.creds.Password != "" {
		body.Set("password", c.creds.Password)
	}

	resp, err := c.PostWithFallback(ctx, urlPath, RequestOptions{
		Timeout: FetchTimeout,
		Body:    body,
	})
	if err != nil {
		c.logger.Warn("fetch failed", "url", urlPath, "error", err)
		return nil
	}
	return resp.Body
}

func (c *apiClient) FetchFunc(urlPath string) FetchFunc {
	return func(ctx context.Context) []byte {
		return c.FetchJSON(ctx, urlPath)
	}
}

// PostWithFallback POSTs to scheme+urlPath for each configured scheme in
// order and returns the first response received. HTTPS is skipped when secure
// transport is unavailable.
func (c *apiClient) PostWithFallback(ctx context.Context, urlPath string, opts RequestOptions) (*model.Response, error) {
	opts = mergeOptions(opts)
	requestID := uuid.New().String()
	logger := c.logger.With("request_id", requestID)

	var errs []error
	for _, scheme := range c.schemes {
		if scheme == SchemeHTTPS && !c.secureTransport {
			logger.Debug("secure transport unavailable, skipping https")
			continue
		}

		target := scheme + urlPath
		resp, err := c.post(ctx, target, requestID, opts)
		if err == nil {
			logger.Debug("remote post succeeded", "url", target, "status", resp.StatusCode)
			return resp, nil
		}
		logger.Debug("remote post failed", "url", target, "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrAllSchemesFailed}, errs...)...)
}

func mergeOptions(opts RequestOptions) RequestOptions {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Body == nil {
		opts.Body = url.Values{}
	}
	return opts
}

// post performs a single attempt and reads the whole body.
func (c *apiClient) post(ctx context.Context, target, requestID string, opts RequestOptions) (*model.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(opts.Body.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	hc := c.insecureClient
	if opts.SSLVerify {
		hc = c.httpClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", target, err)
	}
	return &model.Response{
		URL:        target,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
