package upstreamrepofakes

import (
	"context"
	"sync"

	"github.com/beaconchat/auth-server/upstream"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var _ upstream.SessionRepo = (*FakeUpstreamSessionRepo)(nil)

// FakeUpstreamSessionRepo is an in-memory upstream.SessionRepo for tests and
// local development.
type FakeUpstreamSessionRepo struct {
	sessions map[ksuid.KSUID]*upstream.Session
	lock     sync.RWMutex
}

func NewFakeUpstreamSessionRepo() *FakeUpstreamSessionRepo {
	return &FakeUpstreamSessionRepo{sessions: make(map[ksuid.KSUID]*upstream.Session)}
}

func (r *FakeUpstreamSessionRepo) Get(_ context.Context, id ksuid.KSUID) (*upstream.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("upstream session not found")
	}
	copied := *session
	return &copied, nil
}

func (r *FakeUpstreamSessionRepo) Create(_ context.Context, session *upstream.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}
