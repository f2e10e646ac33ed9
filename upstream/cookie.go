package upstream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
	"github.com/pkg/errors"
)

// CookieName is the cookie carrying the serialized ledger.
const CookieName = "upstream-oauth2-sessions"

// Codec round-trips the ledger through a JWE-protected cookie. Encryption
// gives both confidentiality and integrity: the browser can neither read nor
// forge entries.
type Codec struct {
	encryptionKey []byte
}

// NewCodec creates a Codec from a 32-byte encryption key.
func NewCodec(encryptionKey []byte) (*Codec, error) {
	if len(encryptionKey) != 32 {
		return nil, errors.Errorf("[NewCodec] encryption key must be 32 bytes, got %d", len(encryptionKey))
	}
	return &Codec{encryptionKey: encryptionKey}, nil
}

// Load reads the ledger from the request cookie. A missing, expired, or
// undecodable cookie yields an empty ledger, never an error: the worst case
// is that the user restarts the upstream flow.
func (c *Codec) Load(r *http.Request) Sessions {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Sessions{}
	}
	sessions, err := c.decode(cookie.Value)
	if err != nil {
		return Sessions{}
	}
	return sessions
}

// Save expires stale entries, serializes the ledger, and rewrites the cookie
// wholesale with an absolute expiry of now + SessionTTL.
func (c *Codec) Save(w http.ResponseWriter, r *http.Request, sessions Sessions, now time.Time) error {
	value, err := c.encode(sessions.expire(now))
	if err != nil {
		return errors.Wrap(err, "[Codec.Save] encoding ledger")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(SessionTTL),
	})
	return nil
}

func (c *Codec) encode(sessions Sessions) (string, error) {
	plaintext, err := json.Marshal(sessions.entries)
	if err != nil {
		return "", err
	}
	sealed, err := jwe.Encrypt(plaintext,
		jwe.WithKey(jwa.A256KW, c.encryptionKey),
		jwe.WithContentEncryption(jwa.A256GCM),
	)
	if err != nil {
		return "", err
	}
	return string(sealed), nil
}

func (c *Codec) decode(value string) (Sessions, error) {
	plaintext, err := jwe.Decrypt([]byte(value), jwe.WithKey(jwa.A256KW, c.encryptionKey))
	if err != nil {
		return Sessions{}, err
	}
	var entries []payload
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return Sessions{}, err
	}
	return Sessions{entries: entries}, nil
}
