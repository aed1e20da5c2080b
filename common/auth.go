package common

import (
	"net/http"

	"golang.org/x/oauth2"
)

// NewBearerTransport wraps base so every request carries
// "Authorization: Bearer <token>". The token is static; it is never refreshed.
// An empty token returns base unchanged.
func NewBearerTransport(base http.RoundTripper, token string) http.RoundTripper {
	if token == "" {
		return base
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}),
		Base: base,
	}
}
