package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/beaconchat/auth-server/token"
	tokenrepofakes "github.com/beaconchat/auth-server/token/repofakes"
	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-32-bytes-long!!")

func TestIssuePairSignsVerifiableJWT(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	repo := tokenrepofakes.NewFakeTokenRepo()
	manager, err := token.New(repo, testSigningKey, "https://auth.example.com",
		token.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)

	sessionID := ksuid.New()
	pair, err := manager.IssuePair(context.Background(), sessionID, "user-1", "client-1", "openid profile", 5*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, now.Add(5*time.Minute), pair.ExpiresAt)

	parsed, err := jwt.Parse(pair.AccessToken, func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, "https://auth.example.com", claims["iss"])
	require.Equal(t, "user-1", claims["sub"])
	require.Equal(t, "client-1", claims["client_id"])
	require.Equal(t, sessionID.String(), claims["session_id"])
	require.Equal(t, "openid profile", claims["scope"])
	require.EqualValues(t, now.Add(5*time.Minute).Unix(), claims["exp"])
}

func TestIssuePairPersistsBothTokens(t *testing.T) {
	repo := tokenrepofakes.NewFakeTokenRepo()
	manager, err := token.New(repo, testSigningKey, "https://auth.example.com")
	require.NoError(t, err)

	sessionID := ksuid.New()
	pair, err := manager.IssuePair(context.Background(), sessionID, "user-1", "client-1", "", time.Minute)
	require.NoError(t, err)

	accessTokens, refreshTokens := repo.PairsForSession(sessionID)
	require.Len(t, accessTokens, 1)
	require.Len(t, refreshTokens, 1)
	require.Equal(t, pair.AccessToken, accessTokens[0].Token)
	require.Equal(t, pair.RefreshToken, refreshTokens[0].Token)
	require.Equal(t, pair.AccessToken, refreshTokens[0].AccessToken)
}

func TestIssuePairOmitsEmptyScope(t *testing.T) {
	repo := tokenrepofakes.NewFakeTokenRepo()
	manager, err := token.New(repo, testSigningKey, "https://auth.example.com")
	require.NoError(t, err)

	pair, err := manager.IssuePair(context.Background(), ksuid.New(), "user-1", "client-1", "", time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.Parse(pair.AccessToken, func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	_, hasScope := parsed.Claims.(jwt.MapClaims)["scope"]
	require.False(t, hasScope)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := token.New(nil, testSigningKey, "issuer")
	require.Error(t, err)

	_, err = token.New(tokenrepofakes.NewFakeTokenRepo(), nil, "issuer")
	require.Error(t, err)
}
