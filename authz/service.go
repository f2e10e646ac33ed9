package authz

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/url"
	"time"

	"github.com/beaconchat/auth-server/clients"
	"github.com/beaconchat/auth-server/oauth2"
	"github.com/beaconchat/auth-server/sessions"
	"github.com/beaconchat/auth-server/token"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

const (
	// 32 alphanumeric characters, about 190 bits of entropy.
	codeLength   = 32
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Access tokens issued from the authorization endpoint are short-lived.
	accessTokenTTL = 5 * time.Minute
)

// Service drives an OAuth2 authorization request from client validation
// through (re-)authentication to final code/token delivery. It holds no
// mutable state of its own; everything lives in the repository or travels
// with the request.
type Service struct {
	repo       Repository
	tokens     *token.Manager
	loginPath  string
	reauthPath string
	stepPath   string
	nowTime    func() time.Time
}

// ServiceOption modifies a Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithPaths overrides the login, re-auth, and step continuation paths.
func WithPaths(login, reauth, step string) ServiceOption {
	return func(s *Service) {
		s.loginPath = login
		s.reauthPath = reauth
		s.stepPath = step
	}
}

// NewService initializes the authorization engine.
func NewService(repo Repository, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] repository is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}

	s := &Service{
		repo:       repo,
		tokens:     tokens,
		loginPath:  "/login",
		reauthPath: "/reauth",
		stepPath:   "/oauth2/authorize/step",
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// StepURL builds the continuation URL that re-enters the engine for a
// session.
func (s *Service) StepURL(sessionID ksuid.KSUID) string {
	qs := url.Values{}
	qs.Set("id", sessionID.String())
	return s.stepPath + "?" + qs.Encode()
}

// Authorize validates an inbound authorization request, persists it as an
// AuthorizationSession, and either completes it against an existing browser
// session or redirects the user to the login surface with a step
// continuation. browserSession is nil when no user is authenticated yet.
//
// Failures returned here are recovered at the boundary by Recover, which
// decides whether they can be safely redirected back to the client.
func (s *Service) Authorize(ctx context.Context, registry clients.Registry, req *oauth2.AuthorizationRequest, pkce *oauth2.PKCERequest, browserSession *sessions.BrowserSession) (Outcome, error) {
	client, ok := registry.Find(req.ClientID)
	if !ok {
		return nil, errors.Wrapf(UnknownClientErr, "[Authorize] client %q", req.ClientID)
	}

	redirectURI, err := client.ResolveRedirectURI(req.RedirectURI)
	if err != nil {
		return nil, errors.Wrap(InvalidRedirectURIErr, err.Error())
	}

	// Resolved before anything is persisted: the stored mode drives dispatch.
	responseMode, err := oauth2.ResolveResponseMode(req.ResponseType, req.ResponseMode)
	if err != nil {
		return nil, errors.Wrap(err, "[Authorize] resolving response mode")
	}

	id, err := ksuid.NewRandomWithTime(s.nowTime())
	if err != nil {
		return nil, errors.Wrap(err, "[Authorize] generating session id")
	}

	session := &AuthorizationSession{
		ID:           id,
		ClientID:     client.ID,
		RedirectURI:  redirectURI.String(),
		Scope:        req.Scope,
		ResponseType: req.ResponseType,
		ResponseMode: responseMode,
		State:        req.State,
		Nonce:        req.Nonce,
		MaxAge:       req.MaxAge,
		PKCE:         pkce,
	}

	// The code is generated here, not at completion time, so it is stored in
	// the same transaction as the session and bound to the PKCE challenge.
	if req.ResponseType.Contains(oauth2.CodeResponseType) {
		code, err := generateCode()
		if err != nil {
			return nil, errors.Wrap(err, "[Authorize] generating code")
		}
		session.Code = code
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Authorize] persisting session")
	}

	if browserSession == nil {
		destination := s.loginPath + "?" + url.Values{"next": {s.StepURL(session.ID)}}.Encode()
		return SeeOther{Location: destination}, nil
	}

	return s.step(ctx, session, browserSession)
}

// Step re-enters the engine for an existing authorization session, once a
// browser session exists. It is the continuation target after login, re-auth,
// and upstream-provider round trips.
func (s *Service) Step(ctx context.Context, sessionID ksuid.KSUID, browserSession *sessions.BrowserSession) (Outcome, error) {
	if browserSession == nil {
		return nil, errors.Wrap(MissingBrowserSessionErr, "[Step]")
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrapf(SessionNotFoundErr, "[Step] %s: %v", sessionID, err)
	}

	return s.step(ctx, session, browserSession)
}

func (s *Service) step(ctx context.Context, session *AuthorizationSession, browserSession *sessions.BrowserSession) (Outcome, error) {
	switch {
	case session.BrowserSessionID == nil:
		if err := s.repo.AttachBrowserSession(ctx, session.ID, browserSession.ID); err != nil {
			return nil, errors.Wrap(err, "[step] attaching browser session")
		}
		attached := browserSession.ID
		session.BrowserSessionID = &attached
	case *session.BrowserSessionID == browserSession.ID:
		// Re-entry with the same browser session is a no-op.
	default:
		return nil, errors.Wrapf(SessionMismatchErr, "[step] session %s", session.ID)
	}

	if !s.freshEnough(session, browserSession) {
		destination := s.reauthPath + "?" + url.Values{"next": {s.StepURL(session.ID)}}.Encode()
		return SeeOther{Location: destination}, nil
	}

	return s.complete(ctx, session, browserSession)
}

// freshEnough checks the browser session's last authentication against the
// request's max_age bound, anchored at the time the authorization request was
// made. No bound means any existing authentication counts.
func (s *Service) freshEnough(session *AuthorizationSession, browserSession *sessions.BrowserSession) bool {
	if session.MaxAge == nil {
		return true
	}
	if browserSession.LastAuthenticatedAt.IsZero() {
		return false
	}
	horizon := session.CreatedAt().Add(-*session.MaxAge)
	return !browserSession.LastAuthenticatedAt.Before(horizon)
}

func (s *Service) complete(ctx context.Context, session *AuthorizationSession, browserSession *sessions.BrowserSession) (Outcome, error) {
	// Rejected before anything is issued or persisted, so a fatal completion
	// leaves no committed tokens behind.
	if session.ResponseType.Contains(oauth2.IDTokenResponseType) {
		return nil, errors.Wrapf(IDTokenUnsupportedErr, "[complete] session %s", session.ID)
	}

	params := url.Values{}

	if session.ResponseType.Contains(oauth2.CodeResponseType) {
		// Redelivered as stored; never regenerated.
		params.Set("code", session.Code)
	}

	if session.ResponseType.Contains(oauth2.TokenResponseType) {
		pair, err := s.tokens.IssuePair(ctx, session.ID, browserSession.UserID, session.ClientID, session.Scope, accessTokenTTL)
		if err != nil {
			return nil, errors.Wrap(err, "[complete] issuing token pair")
		}
		for key, values := range oauth2.NewAccessTokenResponse(pair.AccessToken, pair.RefreshToken, accessTokenTTL).Values() {
			params[key] = values
		}
	}

	if err := s.repo.MarkCompleted(ctx, session.ID, s.nowTime()); err != nil {
		return nil, errors.Wrap(err, "[complete] marking session completed")
	}

	return BackToClient{
		RedirectURI:  session.RedirectURI,
		ResponseMode: session.ResponseMode,
		State:        session.State,
		Params:       params,
	}, nil
}

func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
