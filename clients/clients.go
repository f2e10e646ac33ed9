package clients

import (
	"net/url"

	"github.com/pkg/errors"
)

// ClientType distinguishes clients that can keep secrets from those that
// cannot.
type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // server-side apps
	ClientTypePublic       ClientType = "public"       // SPAs, mobile apps
)

// Client is one registered OAuth2 client application.
type Client struct {
	ID           string     `json:"id"`
	Type         ClientType `json:"type"`
	Description  string     `json:"description"`
	Secret       string     `json:"secret,omitempty"`
	RedirectURIs []string   `json:"redirectURIs"`
	Scopes       []string   `json:"scopes"`
}

// IsPublic returns true if the client is a public client.
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// ResolveRedirectURI validates a requested redirect URI against the client's
// registered allow-list. An empty request resolves to the first registered
// URI; anything else must match a registered URI exactly. A resolved URI is
// the only place an authorization response may ever be sent to.
func (c *Client) ResolveRedirectURI(requested string) (*url.URL, error) {
	if len(c.RedirectURIs) == 0 {
		return nil, errors.Errorf("[ResolveRedirectURI] client %q has no registered redirect URIs", c.ID)
	}

	if requested == "" {
		return url.Parse(c.RedirectURIs[0])
	}

	for _, registered := range c.RedirectURIs {
		if requested == registered {
			return url.Parse(registered)
		}
	}
	return nil, errors.Errorf("[ResolveRedirectURI] redirect URI not registered for client %q", c.ID)
}

// HasScope checks if the client is allowed a specific scope.
func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Registry is a fully materialized, read-only snapshot of the registered
// clients, passed explicitly into the authorization engine so it can run
// against fixture sets in tests.
type Registry []Client

// Find returns the client registered under the given id.
func (r Registry) Find(clientID string) (*Client, bool) {
	for i := range r {
		if r[i].ID == clientID {
			return &r[i], true
		}
	}
	return nil, false
}
