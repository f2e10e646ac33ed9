package authzrepofakes

import (
	"context"
	"sync"
	"time"

	"github.com/beaconchat/auth-server/authz"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var _ authz.Repository = (*FakeAuthzRepo)(nil)

// FakeAuthzRepo is an in-memory authz.Repository for tests and local
// development. Each method behaves like one committed transaction.
type FakeAuthzRepo struct {
	sessions map[ksuid.KSUID]*authz.AuthorizationSession
	lock     sync.RWMutex

	// FailCreate makes CreateSession fail, for exercising rollback paths.
	FailCreate bool
}

func NewFakeAuthzRepo() *FakeAuthzRepo {
	return &FakeAuthzRepo{
		sessions: make(map[ksuid.KSUID]*authz.AuthorizationSession),
	}
}

func (r *FakeAuthzRepo) CreateSession(_ context.Context, session *authz.AuthorizationSession) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.FailCreate {
		return errors.New("create session failed")
	}
	if _, exists := r.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *FakeAuthzRepo) GetSession(_ context.Context, id ksuid.KSUID) (*authz.AuthorizationSession, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	copied := *session
	return &copied, nil
}

func (r *FakeAuthzRepo) AttachBrowserSession(_ context.Context, id, browserSessionID ksuid.KSUID) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	if session.BrowserSessionID != nil && *session.BrowserSessionID != browserSessionID {
		return errors.New("session already attached")
	}
	session.BrowserSessionID = &browserSessionID
	return nil
}

func (r *FakeAuthzRepo) MarkCompleted(_ context.Context, id ksuid.KSUID, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	session.CompletedAt = &at
	return nil
}
