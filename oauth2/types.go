package oauth2

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ResponseType represents a single OAuth 2.0 response type requested at the
// authorization endpoint. Requests may carry several, space-separated.
type ResponseType string

const (
	// CodeResponseType asks for an authorization code to be issued, which the
	// client later exchanges for tokens at the token endpoint.
	CodeResponseType ResponseType = "code"

	// TokenResponseType asks for an access token to be issued directly from
	// the authorization endpoint (implicit flow).
	TokenResponseType ResponseType = "token"

	// IDTokenResponseType asks for an OpenID Connect ID token. Not issued by
	// this server yet; requesting it is a hard failure at completion time.
	IDTokenResponseType ResponseType = "id_token"
)

// ResponseTypeSet is the set of response types carried by one authorization
// request, in the order the client sent them.
type ResponseTypeSet []ResponseType

// Contains reports whether the set includes the given response type.
func (s ResponseTypeSet) Contains(rt ResponseType) bool {
	for _, t := range s {
		if t == rt {
			return true
		}
	}
	return false
}

// String renders the set back to its space-joined wire form.
func (s ResponseTypeSet) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, " ")
}

// ParseResponseTypes parses the space-separated response_type parameter.
func ParseResponseTypes(raw string) (ResponseTypeSet, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("[ParseResponseTypes] response_type is required")
	}
	var set ResponseTypeSet
	for _, part := range strings.Fields(raw) {
		rt := ResponseType(part)
		switch rt {
		case CodeResponseType, TokenResponseType, IDTokenResponseType:
		default:
			return nil, errors.Errorf("[ParseResponseTypes] unknown response type %q", part)
		}
		if !set.Contains(rt) {
			set = append(set, rt)
		}
	}
	return set, nil
}

// ResponseMode denotes how authorization response parameters are delivered
// back to the client's redirect URI.
type ResponseMode string

const (
	// QueryResponseMode returns parameters in the redirect URI query string.
	QueryResponseMode ResponseMode = "query"

	// FragmentResponseMode returns parameters in the redirect URI fragment.
	// Mandatory default whenever tokens are delivered from the authorization
	// endpoint, since fragments never reach the client's server logs.
	FragmentResponseMode ResponseMode = "fragment"

	// FormPostResponseMode returns parameters via an auto-submitting HTML form
	// that POSTs to the redirect URI from the user's browser.
	FormPostResponseMode ResponseMode = "form_post"
)

// ParseResponseMode parses the optional response_mode parameter. An empty
// value yields "" and no error; the default is decided by ResolveResponseMode.
func ParseResponseMode(raw string) (ResponseMode, error) {
	mode := ResponseMode(raw)
	switch mode {
	case "", QueryResponseMode, FragmentResponseMode, FormPostResponseMode:
		return mode, nil
	}
	return "", errors.Errorf("[ParseResponseMode] unknown response mode %q", raw)
}

// CodeMethodType represents the PKCE code challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 hashes the verifier with SHA-256 before comparison.
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain compares the verifier to the challenge directly.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// PKCERequest holds the proof-key parameters optionally carried by an
// authorization request. The challenge is stored alongside the generated code
// and verified when the code is exchanged.
type PKCERequest struct {
	CodeChallenge       string
	CodeChallengeMethod CodeMethodType
}

// AuthorizationRequest holds the parameters of one inbound request to the
// authorization endpoint, before any validation against the client registry.
type AuthorizationRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType ResponseTypeSet
	ResponseMode ResponseMode // suggested by the client, "" when absent
	Scope        string       // space-joined, order preserved
	State        string       // opaque, echoed back verbatim, "" when absent
	Nonce        string
	MaxAge       *time.Duration // upper bound on authentication age, nil when absent
}

// ParseAuthorizationRequest extracts an AuthorizationRequest and optional PKCE
// parameters from the flattened query values of a GET /oauth2/authorize call.
func ParseAuthorizationRequest(values url.Values) (*AuthorizationRequest, *PKCERequest, error) {
	responseTypes, err := ParseResponseTypes(values.Get("response_type"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "[ParseAuthorizationRequest] response_type")
	}

	mode, err := ParseResponseMode(values.Get("response_mode"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "[ParseAuthorizationRequest] response_mode")
	}

	req := &AuthorizationRequest{
		ClientID:     values.Get("client_id"),
		RedirectURI:  values.Get("redirect_uri"),
		ResponseType: responseTypes,
		ResponseMode: mode,
		Scope:        strings.Join(strings.Fields(values.Get("scope")), " "),
		State:        values.Get("state"),
		Nonce:        values.Get("nonce"),
	}

	if raw := values.Get("max_age"); raw != "" {
		seconds, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[ParseAuthorizationRequest] max_age")
		}
		maxAge := time.Duration(seconds) * time.Second
		req.MaxAge = &maxAge
	}

	var pkce *PKCERequest
	if challenge := values.Get("code_challenge"); challenge != "" {
		method := CodeMethodType(values.Get("code_challenge_method"))
		if method == "" {
			method = CodeMethodTypePlain
		}
		switch method {
		case CodeMethodTypeS256, CodeMethodTypePlain:
		default:
			return nil, nil, errors.Errorf("[ParseAuthorizationRequest] unknown code challenge method %q", method)
		}
		pkce = &PKCERequest{CodeChallenge: challenge, CodeChallengeMethod: method}
	}

	return req, pkce, nil
}
