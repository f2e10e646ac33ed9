package authz

import (
	"context"
	"time"

	"github.com/beaconchat/auth-server/oauth2"
	"github.com/segmentio/ksuid"
)

// AuthorizationSession is the server-persisted record of one in-progress
// OAuth2 authorization attempt. Everything except the browser-session link,
// the code delivery and the completion timestamp is fixed at creation.
type AuthorizationSession struct {
	// ID is time-ordered; its embedded timestamp is the session creation time.
	ID ksuid.KSUID

	ClientID     string
	RedirectURI  string // resolved against the client allow-list before storage
	Scope        string // space-joined, order preserved
	ResponseType oauth2.ResponseTypeSet
	ResponseMode oauth2.ResponseMode
	State        string
	Nonce        string
	MaxAge       *time.Duration
	PKCE         *oauth2.PKCERequest

	// Code is generated exactly once, at session creation, iff "code" was
	// requested. Re-entries redeliver it, never regenerate it.
	Code string

	// BrowserSessionID is set once a user has authenticated for this attempt.
	BrowserSessionID *ksuid.KSUID

	CompletedAt *time.Time
}

// CreatedAt returns the creation time embedded in the session id.
func (s *AuthorizationSession) CreatedAt() time.Time {
	return s.ID.Time()
}

// Repository is the authorization-session persistence contract. Each call is
// one short-lived transaction; CreateSession stores the session together with
// its pre-generated code, so a reader can never observe a code-requesting
// session without its code.
type Repository interface {
	CreateSession(ctx context.Context, session *AuthorizationSession) error
	GetSession(ctx context.Context, id ksuid.KSUID) (*AuthorizationSession, error)
	AttachBrowserSession(ctx context.Context, id, browserSessionID ksuid.KSUID) error
	MarkCompleted(ctx context.Context, id ksuid.KSUID, at time.Time) error
}
