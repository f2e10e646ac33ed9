package upstream

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// SessionTTL is the absolute lifetime of a pending upstream linking attempt.
const SessionTTL = 10 * time.Minute

// SessionNotFoundErr covers missing, expired, and already-consumed ledger
// entries alike; callers treat all of them as "start the upstream flow
// fresh".
var SessionNotFoundErr = errors.New("upstream session not found")

// payload is one pending or completed attempt to link an upstream-provider
// authentication to an authorization flow. The session id's embedded
// timestamp doubles as the entry's creation time.
type payload struct {
	Session  ksuid.KSUID  `json:"session"`
	Provider ksuid.KSUID  `json:"provider"`
	State    string       `json:"state"`
	Link     *ksuid.KSUID `json:"link,omitempty"`
}

func (p payload) expired(now time.Time) bool {
	return now.Sub(p.Session.Time()) > SessionTTL
}

// Sessions is the client-held ledger of pending upstream linking attempts.
// It is a value type: every "mutating" operation returns a new ledger, since
// the store of record is the serialized cookie, not any in-memory instance.
// Entries are kept in insertion order and scanned linearly; the ledger is
// bounded by concurrently pending flows, which is always small.
type Sessions struct {
	entries []payload
}

func (s Sessions) clone() Sessions {
	entries := make([]payload, len(s.entries))
	copy(entries, s.entries)
	return Sessions{entries: entries}
}

// expire drops entries older than SessionTTL. Called on every save so stale
// attempts never outlive the cookie rewrite.
func (s Sessions) expire(now time.Time) Sessions {
	kept := make([]payload, 0, len(s.entries))
	for _, p := range s.entries {
		if !p.expired(now) {
			kept = append(kept, p)
		}
	}
	return Sessions{entries: kept}
}

// Add appends a new unlinked entry for a provider and a random state.
func (s Sessions) Add(session, provider ksuid.KSUID, state string) Sessions {
	next := s.clone()
	next.entries = append(next.entries, payload{
		Session:  session,
		Provider: provider,
		State:    state,
	})
	return next
}

// FindSession returns the session owning the unlinked entry matching the
// provider and state. Entries that already acquired a link are deliberately
// unreachable here, so a replayed state parameter finds nothing.
func (s Sessions) FindSession(provider ksuid.KSUID, state string) (ksuid.KSUID, error) {
	for _, p := range s.entries {
		if p.Provider == provider && p.State == state && p.Link == nil {
			return p.Session, nil
		}
	}
	return ksuid.Nil, SessionNotFoundErr
}

// AddLinkToSession records the link generated for a session. From this point
// on the entry is only reachable by link id.
func (s Sessions) AddLinkToSession(session, link ksuid.KSUID) (Sessions, error) {
	next := s.clone()
	for i := range next.entries {
		if next.entries[i].Session == session && next.entries[i].Link == nil {
			linked := link
			next.entries[i].Link = &linked
			return next, nil
		}
	}
	return Sessions{}, SessionNotFoundErr
}

// LookupLink returns the session owning a link.
func (s Sessions) LookupLink(link ksuid.KSUID) (ksuid.KSUID, error) {
	for _, p := range s.entries {
		if p.Link != nil && *p.Link == link {
			return p.Session, nil
		}
	}
	return ksuid.Nil, SessionNotFoundErr
}

// ConsumeLink removes the entry owning a link. A link can be consumed at
// most once; a second consumption fails with SessionNotFoundErr.
func (s Sessions) ConsumeLink(link ksuid.KSUID) (Sessions, error) {
	for i, p := range s.entries {
		if p.Link != nil && *p.Link == link {
			next := s.clone()
			next.entries = append(next.entries[:i], next.entries[i+1:]...)
			return next, nil
		}
	}
	return Sessions{}, SessionNotFoundErr
}

// Len reports how many entries the ledger currently holds.
func (s Sessions) Len() int {
	return len(s.entries)
}
