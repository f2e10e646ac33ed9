package sessions

import (
	"context"
	"time"

	"github.com/segmentio/ksuid"
)

// BrowserSession is an authenticated end-user session, carried by the browser
// session cookie. The authorization engine only ever reads its id and last
// authentication time; creation and re-authentication belong to the login
// surfaces.
type BrowserSession struct {
	ID                  ksuid.KSUID
	UserID              string
	CreatedAt           time.Time
	LastAuthenticatedAt time.Time
}

// Repo is the browser-session persistence contract.
type Repo interface {
	Get(ctx context.Context, id ksuid.KSUID) (*BrowserSession, error)
	Create(ctx context.Context, userID string, now time.Time) (*BrowserSession, error)
	// Authenticate records a fresh authentication on an existing session.
	Authenticate(ctx context.Context, id ksuid.KSUID, now time.Time) error
}
