package model

import (
	"encoding/json"
	"net/http"
)

// JSONUnmarshal is the single place JSON payloads are decoded.
func JSONUnmarshal(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

// ----------------------------------------------------------------------
// Credentials & host context
// ----------------------------------------------------------------------

// Credentials are sent in the body of every feed request. Either field may be
// empty, in which case it is left out of the request.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// CredentialSource looks up a named credential ("user" or "pass").
type CredentialSource interface {
	Credential(name string) string
}

// CredentialsFrom reads both credentials from src. A nil source yields empty
// credentials.
func CredentialsFrom(src CredentialSource) Credentials {
	if src == nil {
		return Credentials{}
	}
	return Credentials{
		Username: src.Credential("user"),
		Password: src.Credential("pass"),
	}
}

// DraftMode is the editing mode in which the store feed is bootstrapped.
const DraftMode = "draft"

// DraftState exposes the host's current editing mode.
type DraftState interface {
	Mode() string
}

// StaticDraft is a DraftState with a fixed mode.
type StaticDraft string

func (d StaticDraft) Mode() string { return string(d) }

// IsDraft reports whether d is non-nil and in draft mode.
func IsDraft(d DraftState) bool {
	return d != nil && d.Mode() == DraftMode
}

// ----------------------------------------------------------------------
// Remote responses
// ----------------------------------------------------------------------

// Response is a fully-read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ----------------------------------------------------------------------
// Store feed
// ----------------------------------------------------------------------

// Collection is the store feed in normalized form. A JSON object decodes into
// Object, a JSON array into Items. Anything else leaves both nil.
type Collection struct {
	Object map[string]interface{}
	Items  []interface{}
}

// Len returns the number of top-level entries.
func (c Collection) Len() int {
	if c.Object != nil {
		return len(c.Object)
	}
	return len(c.Items)
}

// IsEmpty reports whether the collection holds nothing.
func (c Collection) IsEmpty() bool {
	return c.Len() == 0
}

// Value returns the decoded payload: the map, the slice, or an empty map.
func (c Collection) Value() interface{} {
	switch {
	case c.Object != nil:
		return c.Object
	case c.Items != nil:
		return c.Items
	default:
		return map[string]interface{}{}
	}
}

// MarshalJSON encodes the collection as the underlying object or array.
func (c Collection) MarshalJSON() ([]byte, error) {
	if c.Object == nil && c.Items != nil {
		return json.Marshal(c.Items)
	}
	if c.Object == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.Object)
}
