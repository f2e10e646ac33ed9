package upstream

import (
	"context"

	"github.com/segmentio/ksuid"
)

// Provider is one configured third-party identity provider users may
// authenticate through before a local session exists.
type Provider struct {
	ID           ksuid.KSUID `json:"id"`
	Name         string      `json:"name"`
	Issuer       string      `json:"issuer"`
	ClientID     string      `json:"clientId"`
	ClientSecret string      `json:"clientSecret,omitempty"`
	Scopes       []string    `json:"scopes"`
}

// Registry is a read-only snapshot of the configured upstream providers.
type Registry []Provider

// Find returns the provider with the given id.
func (r Registry) Find(id ksuid.KSUID) (*Provider, bool) {
	for i := range r {
		if r[i].ID == id {
			return &r[i], true
		}
	}
	return nil, false
}

// Link is the server-persisted connection between an upstream subject and a
// local user. The ledger only ever carries its id.
type Link struct {
	ID         ksuid.KSUID
	ProviderID ksuid.KSUID
	Subject    string // the "sub" claim at the upstream provider
	UserID     string
}

// LinkRepo is the upstream-link persistence contract.
type LinkRepo interface {
	Get(ctx context.Context, id ksuid.KSUID) (*Link, error)
	FindByProviderSubject(ctx context.Context, providerID ksuid.KSUID, subject string) (*Link, error)
	Create(ctx context.Context, link *Link) error
}

// Session is the server-persisted side of one upstream linking attempt. The
// ledger entry in the browser cookie is what proves a callback belongs to it;
// this record only remembers where to continue afterwards.
type Session struct {
	ID         ksuid.KSUID
	ProviderID ksuid.KSUID
	// Next is the continuation URL back into the authorization flow.
	Next string
}

// SessionRepo is the upstream-session persistence contract.
type SessionRepo interface {
	Get(ctx context.Context, id ksuid.KSUID) (*Session, error)
	Create(ctx context.Context, session *Session) error
}
