package upstream

import (
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/require"
)

func ksuidAt(t *testing.T, at time.Time) ksuid.KSUID {
	t.Helper()
	id, err := ksuid.NewRandomWithTime(at)
	require.NoError(t, err)
	return id
}

func TestLedgerLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)

	providerA := ksuidAt(t, now)
	providerB := ksuidAt(t, now)

	firstSession := ksuidAt(t, now)
	const firstState = "first-state"
	sessions := Sessions{}.Add(firstSession, providerA, firstState)

	now = now.Add(5 * time.Minute)

	secondSession := ksuidAt(t, now)
	const secondState = "second-state"
	sessions = sessions.Add(secondSession, providerB, secondState)

	// Both entries survive a sweep five minutes in.
	sessions = sessions.expire(now)

	got, err := sessions.FindSession(providerA, firstState)
	require.NoError(t, err)
	require.Equal(t, firstSession, got)

	got, err = sessions.FindSession(providerB, secondState)
	require.NoError(t, err)
	require.Equal(t, secondSession, got)

	// Provider and state must both match.
	_, err = sessions.FindSession(providerB, firstState)
	require.ErrorIs(t, err, SessionNotFoundErr)
	_, err = sessions.FindSession(providerA, secondState)
	require.ErrorIs(t, err, SessionNotFoundErr)

	// Six more minutes: the first entry is past the 10-minute TTL.
	now = now.Add(6 * time.Minute)
	sessions = sessions.expire(now)

	_, err = sessions.FindSession(providerA, firstState)
	require.ErrorIs(t, err, SessionNotFoundErr)
	got, err = sessions.FindSession(providerB, secondState)
	require.NoError(t, err)
	require.Equal(t, secondSession, got)

	// Associate a link with the surviving session.
	secondLink := ksuidAt(t, now)
	sessions, err = sessions.AddLinkToSession(secondSession, secondLink)
	require.NoError(t, err)

	// The entry is no longer reachable by state, only by link.
	_, err = sessions.FindSession(providerB, secondState)
	require.ErrorIs(t, err, SessionNotFoundErr)

	got, err = sessions.LookupLink(secondLink)
	require.NoError(t, err)
	require.Equal(t, secondSession, got)

	// A link is consumed at most once.
	sessions, err = sessions.ConsumeLink(secondLink)
	require.NoError(t, err)
	_, err = sessions.ConsumeLink(secondLink)
	require.ErrorIs(t, err, SessionNotFoundErr)
}

func TestLedgerValueSemantics(t *testing.T) {
	now := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)
	provider := ksuidAt(t, now)
	session := ksuidAt(t, now)

	original := Sessions{}
	added := original.Add(session, provider, "state")

	require.Equal(t, 0, original.Len())
	require.Equal(t, 1, added.Len())

	link := ksuidAt(t, now)
	linked, err := added.AddLinkToSession(session, link)
	require.NoError(t, err)

	// The pre-link ledger still finds the session by state.
	_, err = added.FindSession(provider, "state")
	require.NoError(t, err)
	_, err = linked.FindSession(provider, "state")
	require.ErrorIs(t, err, SessionNotFoundErr)
}

func TestLedgerAddLinkRequiresUnlinkedEntry(t *testing.T) {
	now := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)
	provider := ksuidAt(t, now)
	session := ksuidAt(t, now)

	sessions := Sessions{}.Add(session, provider, "state")

	sessions, err := sessions.AddLinkToSession(session, ksuidAt(t, now))
	require.NoError(t, err)

	// Already linked: a second link for the same session fails.
	_, err = sessions.AddLinkToSession(session, ksuidAt(t, now))
	require.ErrorIs(t, err, SessionNotFoundErr)

	// Unknown session.
	_, err = Sessions{}.AddLinkToSession(ksuidAt(t, now), ksuidAt(t, now))
	require.ErrorIs(t, err, SessionNotFoundErr)
}

func TestLedgerExpiryBounds(t *testing.T) {
	created := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)
	provider := ksuidAt(t, created)
	session := ksuidAt(t, created)

	sessions := Sessions{}.Add(session, provider, "x")

	// Retained at creation + 5 minutes.
	swept := sessions.expire(created.Add(5 * time.Minute))
	_, err := swept.FindSession(provider, "x")
	require.NoError(t, err)

	// Absent at creation + 11 minutes.
	swept = sessions.expire(created.Add(11 * time.Minute))
	_, err = swept.FindSession(provider, "x")
	require.ErrorIs(t, err, SessionNotFoundErr)
}
