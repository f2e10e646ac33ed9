package upstreamrepofakes

import (
	"context"
	"sync"

	"github.com/beaconchat/auth-server/upstream"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

var _ upstream.LinkRepo = (*FakeLinkRepo)(nil)

// FakeLinkRepo is an in-memory upstream.LinkRepo for tests and local
// development.
type FakeLinkRepo struct {
	links map[ksuid.KSUID]*upstream.Link
	lock  sync.RWMutex
}

func NewFakeLinkRepo() *FakeLinkRepo {
	return &FakeLinkRepo{links: make(map[ksuid.KSUID]*upstream.Link)}
}

func (r *FakeLinkRepo) Get(_ context.Context, id ksuid.KSUID) (*upstream.Link, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	link, ok := r.links[id]
	if !ok {
		return nil, errors.New("link not found")
	}
	copied := *link
	return &copied, nil
}

func (r *FakeLinkRepo) FindByProviderSubject(_ context.Context, providerID ksuid.KSUID, subject string) (*upstream.Link, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, link := range r.links {
		if link.ProviderID == providerID && link.Subject == subject {
			copied := *link
			return &copied, nil
		}
	}
	return nil, errors.New("link not found")
}

func (r *FakeLinkRepo) Create(_ context.Context, link *upstream.Link) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	copied := *link
	r.links[link.ID] = &copied
	return nil
}
