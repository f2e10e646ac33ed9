package tokenrepofakes

import (
	"context"
	"sync"

	"github.com/beaconchat/auth-server/token"
	"github.com/segmentio/ksuid"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

// FakeTokenRepo is an in-memory token.Repo for tests and local development.
type FakeTokenRepo struct {
	access  map[string]*token.AccessToken
	refresh map[string]*token.RefreshToken
	lock    sync.RWMutex
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		access:  make(map[string]*token.AccessToken),
		refresh: make(map[string]*token.RefreshToken),
	}
}

func (r *FakeTokenRepo) AddPair(_ context.Context, access *token.AccessToken, refresh *token.RefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.access[access.Token] = access
	r.refresh[refresh.Token] = refresh
	return nil
}

// PairsForSession returns the tokens issued for a session.
func (r *FakeTokenRepo) PairsForSession(sessionID ksuid.KSUID) ([]*token.AccessToken, []*token.RefreshToken) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	var access []*token.AccessToken
	var refresh []*token.RefreshToken
	for _, a := range r.access {
		if a.SessionID == sessionID {
			copied := *a
			access = append(access, &copied)
		}
	}
	for _, rt := range r.refresh {
		if rt.SessionID == sessionID {
			copied := *rt
			refresh = append(refresh, &copied)
		}
	}
	return access, refresh
}
