package server

import (
	"net/http"
	"net/url"

	"github.com/beaconchat/auth-server/authz"
	"github.com/beaconchat/auth-server/oauth2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
)

// resolveOutcome turns an engine outcome into a concrete HTTP response.
func (s *Server) resolveOutcome(w http.ResponseWriter, r *http.Request, outcome authz.Outcome) {
	switch o := outcome.(type) {
	case authz.SeeOther:
		http.Redirect(w, r, o.Location, http.StatusSeeOther)
	case authz.BackToClient:
		if err := backToClient(w, r, o); err != nil {
			log.Err(err).Msg("failed to dispatch response to client")
			s.renderErrorPage(w, oauth2.ErrServerError)
		}
	case authz.ErrorPage:
		s.renderErrorPage(w, o.Err)
	default:
		log.Error().Msgf("unhandled outcome type %T", outcome)
		s.renderErrorPage(w, oauth2.ErrServerError)
	}
}

// backToClient delivers a parameter bag to the client's redirect URI using
// the resolved response mode. For query and fragment, parameters already on
// the target are preserved; new parameters win on key collision; state, when
// present, is included verbatim.
func backToClient(w http.ResponseWriter, r *http.Request, o authz.BackToClient) error {
	target, err := url.Parse(o.RedirectURI)
	if err != nil {
		return errors.Wrap(err, "[backToClient] invalid redirect URI")
	}

	switch o.ResponseMode {
	case oauth2.FragmentResponseMode:
		existing, err := url.ParseQuery(target.Fragment)
		if err != nil {
			existing = url.Values{}
		}
		target.Fragment = mergeParams(existing, o.State, o.Params).Encode()
		http.Redirect(w, r, target.String(), http.StatusSeeOther)

	case oauth2.FormPostResponseMode:
		// No existing-parameter merge: form-post targets carry no
		// pre-existing query or fragment state.
		fields := mergeParams(url.Values{}, o.State, o.Params)
		return renderFormPost(w, target.String(), fields)

	default: // query
		target.RawQuery = mergeParams(target.Query(), o.State, o.Params).Encode()
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	}
	return nil
}

// mergeParams combines existing target parameters, the echoed state, and the
// new response parameters, in that order of precedence (lowest first).
func mergeParams(existing url.Values, state string, params url.Values) url.Values {
	merged := url.Values{}
	for key, values := range existing {
		merged[key] = values
	}
	if state != "" {
		merged.Set("state", state)
	}
	for key, values := range params {
		merged[key] = values
	}
	return merged
}

func renderFormPost(w http.ResponseWriter, action string, fields url.Values) error {
	tmpl, err := ParseTemplate("form_post.html")
	if err != nil {
		return errors.Wrap(err, "[renderFormPost] parsing template")
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(http.StatusOK)

	data := struct {
		RedirectURI string
		Fields      url.Values
	}{
		RedirectURI: action,
		Fields:      fields,
	}
	return tmpl.Execute(w, data)
}

// renderErrorPage shows a failure locally, for errors that must never be
// redirected to the client.
func (s *Server) renderErrorPage(w http.ResponseWriter, oauthErr oauth2.Error) {
	tmpl, err := ParseTemplate("error.html")
	if err != nil {
		http.Error(w, oauthErr.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(http.StatusBadRequest)

	data := struct {
		AppName     string
		Code        string
		Description string
	}{
		AppName:     s.config.GetAppName(),
		Code:        oauthErr.Code,
		Description: oauthErr.Description,
	}
	if err := tmpl.Execute(w, data); err != nil {
		log.Err(err).Msg("failed to render error page")
	}
}
