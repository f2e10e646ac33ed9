package oauth2

import (
	"net/url"
	"strconv"
	"time"
)

// AccessTokenResponse represents the token material returned when an
// authorization request asked for response type "token". The same shape is
// flattened into redirect parameters by the dispatcher.
type AccessTokenResponse struct {
	// AccessToken is the bearer token used to access protected resources.
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer" in this implementation.
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// NewAccessTokenResponse builds a bearer response for the given token pair.
func NewAccessTokenResponse(accessToken, refreshToken string, ttl time.Duration) AccessTokenResponse {
	return AccessTokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl.Seconds()),
		RefreshToken: refreshToken,
	}
}

// Values flattens the response into dispatchable redirect parameters.
func (r AccessTokenResponse) Values() url.Values {
	v := url.Values{}
	v.Set("access_token", r.AccessToken)
	v.Set("token_type", r.TokenType)
	if r.ExpiresIn > 0 {
		v.Set("expires_in", strconv.Itoa(r.ExpiresIn))
	}
	if r.RefreshToken != "" {
		v.Set("refresh_token", r.RefreshToken)
	}
	return v
}
