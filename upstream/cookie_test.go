package upstream

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testCookieKey = []byte("0123456789abcdef0123456789abcdef")

func requestWithCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Request {
	t.Helper()

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/upstream/callback", nil)
	req.AddCookie(cookies[0])
	return req
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec(testCookieKey)
	require.NoError(t, err)

	now := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)
	provider := ksuidAt(t, now)
	session := ksuidAt(t, now)

	sessions := Sessions{}.Add(session, provider, "state-1")

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/upstream/authorize", nil)
	require.NoError(t, codec.Save(recorder, req, sessions, now))

	cookie := recorder.Result().Cookies()[0]
	require.Equal(t, CookieName, cookie.Name)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	require.WithinDuration(t, now.Add(SessionTTL), cookie.Expires, time.Second)

	loaded := codec.Load(requestWithCookie(t, recorder))
	got, err := loaded.FindSession(provider, "state-1")
	require.NoError(t, err)
	require.Equal(t, session, got)
}

func TestCodecSaveSweepsExpiredEntries(t *testing.T) {
	codec, err := NewCodec(testCookieKey)
	require.NoError(t, err)

	created := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)
	provider := ksuidAt(t, created)
	session := ksuidAt(t, created)

	sessions := Sessions{}.Add(session, provider, "state-1")

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/upstream/authorize", nil)
	require.NoError(t, codec.Save(recorder, req, sessions, created.Add(11*time.Minute)))

	loaded := codec.Load(requestWithCookie(t, recorder))
	require.Equal(t, 0, loaded.Len())
}

func TestCodecLoadNeverErrors(t *testing.T) {
	codec, err := NewCodec(testCookieKey)
	require.NoError(t, err)

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.Equal(t, 0, codec.Load(req).Len())
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwe"})
		require.Equal(t, 0, codec.Load(req).Len())
	})

	t.Run("cookie sealed under a different key", func(t *testing.T) {
		otherCodec, err := NewCodec([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)

		now := time.Date(2024, 1, 18, 1, 30, 22, 0, time.UTC)
		sessions := Sessions{}.Add(ksuidAt(t, now), ksuidAt(t, now), "s")

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, otherCodec.Save(recorder, req, sessions, now))

		require.Equal(t, 0, codec.Load(requestWithCookie(t, recorder)).Len())
	})
}

func TestNewCodecRejectsShortKeys(t *testing.T) {
	_, err := NewCodec([]byte("too-short"))
	require.Error(t, err)
}
