package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

const refreshTokenLength = 32 // bytes of entropy before encoding

// Pair is one access/refresh token pair issued for an authorization session.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AccessToken is the persisted record of an issued access token.
type AccessToken struct {
	Token     string
	SessionID ksuid.KSUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RefreshToken is the persisted record of an issued refresh token, tied to
// the access token it can replace.
type RefreshToken struct {
	Token       string
	SessionID   ksuid.KSUID
	AccessToken string
	CreatedAt   time.Time
}

// Repo is the token persistence contract. AddPair stores both tokens in one
// transaction so a reader can never observe an access token without its
// refresh token.
type Repo interface {
	AddPair(ctx context.Context, access *AccessToken, refresh *RefreshToken) error
}

// Manager creates and persists token pairs.
type Manager struct {
	repo       Repo
	signingKey []byte
	issuer     string
	nowTime    func() time.Time
}

// ManagerOption modifies a Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// New initializes a Manager with its persistence and signing dependencies.
func New(repo Repo, signingKey []byte, issuer string, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[token.New] repo is required")
	}
	if len(signingKey) == 0 {
		return nil, errors.New("[token.New] signing key is required")
	}

	m := &Manager{
		repo:       repo,
		signingKey: signingKey,
		issuer:     issuer,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// IssuePair creates, signs, and persists an access/refresh token pair bound
// to an authorization session. The access token is a signed JWT; the refresh
// token is opaque. Both are stored in one transaction.
func (m *Manager) IssuePair(ctx context.Context, sessionID ksuid.KSUID, userID, clientID, scope string, ttl time.Duration) (*Pair, error) {
	now := m.nowTime()
	expiresAt := now.Add(ttl)

	claims := jwt.MapClaims{
		"iss":        m.issuer,
		"sub":        userID,
		"client_id":  clientID,
		"session_id": sessionID.String(),
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
		"jti":        ksuid.New().String(),
	}
	if scope != "" {
		claims["scope"] = scope
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] signing access token")
	}

	refreshToken, err := generateRandomString(refreshTokenLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] generating refresh token")
	}

	access := &AccessToken{
		Token:     accessToken,
		SessionID: sessionID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	refresh := &RefreshToken{
		Token:       refreshToken,
		SessionID:   sessionID,
		AccessToken: accessToken,
		CreatedAt:   now,
	}

	if err := m.repo.AddPair(ctx, access, refresh); err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] persisting token pair")
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
