package oauth2

import (
	"net/url"

	"github.com/pkg/errors"
)

// ErrInvalidResponseMode is returned when the client suggests a response mode
// that is forbidden for the requested response types.
var ErrInvalidResponseMode = errors.New("invalid response mode")

// Error is the standard OAuth2 error-response shape (RFC 6749 §4.1.2.1 /
// §5.2). It is delivered back to clients through the same dispatch mechanism
// as success responses.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// Values flattens the error into dispatchable redirect parameters.
func (e Error) Values() url.Values {
	v := url.Values{}
	v.Set("error", e.Code)
	if e.Description != "" {
		v.Set("error_description", e.Description)
	}
	return v
}

// Standard error responses used by the authorization endpoint.
var (
	ErrInvalidRequest = Error{
		Code:        "invalid_request",
		Description: "The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed.",
	}
	ErrInvalidGrant = Error{
		Code:        "invalid_grant",
		Description: "The provided authorization grant is invalid or expired.",
	}
	ErrUnsupportedResponseType = Error{
		Code:        "unsupported_response_type",
		Description: "The authorization server does not support obtaining a response using this method.",
	}
	ErrAccessDenied = Error{
		Code:        "access_denied",
		Description: "The resource owner or authorization server denied the request.",
	}
	ErrServerError = Error{
		Code:        "server_error",
		Description: "The authorization server encountered an unexpected condition.",
	}
)

// AsError converts any failure into a dispatchable OAuth2 error, keeping it
// as-is when it already is one and folding everything else into server_error.
func AsError(err error) Error {
	var oauthErr Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	if errors.Is(err, ErrInvalidResponseMode) {
		return ErrInvalidRequest
	}
	return ErrServerError
}
