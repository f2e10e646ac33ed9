package sessionrepofakes

import (
	"context"
	"sync"
	"time"

	"github.com/beaconchat/auth-server/sessions"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var _ sessions.Repo = (*FakeBrowserSessionRepo)(nil)

// FakeBrowserSessionRepo is an in-memory sessions.Repo for tests and local
// development.
type FakeBrowserSessionRepo struct {
	sessions map[ksuid.KSUID]*sessions.BrowserSession
	lock     sync.RWMutex
}

func NewFakeBrowserSessionRepo() *FakeBrowserSessionRepo {
	return &FakeBrowserSessionRepo{
		sessions: make(map[ksuid.KSUID]*sessions.BrowserSession),
	}
}

func (r *FakeBrowserSessionRepo) Get(_ context.Context, id ksuid.KSUID) (*sessions.BrowserSession, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("browser session not found")
	}
	copied := *session
	return &copied, nil
}

func (r *FakeBrowserSessionRepo) Create(_ context.Context, userID string, now time.Time) (*sessions.BrowserSession, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return nil, errors.Wrap(err, "[FakeBrowserSessionRepo.Create] ksuid")
	}
	session := &sessions.BrowserSession{
		ID:                  id,
		UserID:              userID,
		CreatedAt:           now,
		LastAuthenticatedAt: now,
	}
	r.sessions[id] = session
	copied := *session
	return &copied, nil
}

func (r *FakeBrowserSessionRepo) Authenticate(_ context.Context, id ksuid.KSUID, now time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return errors.New("browser session not found")
	}
	session.LastAuthenticatedAt = now
	return nil
}
