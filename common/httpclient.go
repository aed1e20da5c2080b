package common

import (
	"crypto/tls"
	"net/http"
)

// DefaultUserAgent is sent on every outbound request unless overridden.
const DefaultUserAgent = "storeapi/1.0"

// HttpClient is an interface for the HTTP operations the API client needs.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Implementation of HttpClient that wraps a standard *http.Client.
type httpClient struct {
	client *http.Client
}

// NewHttpClient returns a new HttpClient that stamps userAgent on every
// request. Timeouts are left to the caller's context; base.Timeout is kept
// as-is.
func NewHttpClient(userAgent string, base *http.Client) HttpClient {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	base.Transport = &userAgentRoundTripper{
		Wrapped:   base.Transport,
		UserAgent: userAgent,
	}

	return &httpClient{client: base}
}

// NewTransport clones the default transport. With verifyTLS false, server
// certificates are not checked.
func NewTransport(verifyTLS bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.InsecureSkipVerify = !verifyTLS
	return t
}

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}
