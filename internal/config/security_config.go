package config

import "crypto/sha256"

const (
	tokenSigningKeyVar     = "TOKEN_SIGNING_KEY"
	cookieEncryptionKeyVar = "COOKIE_ENCRYPTION_KEY"

	// Development-only fallbacks. Production deployments must set both keys.
	devTokenSigningKey     = "dev-token-signing-key-do-not-use"
	devCookieEncryptionKey = "dev-cookie-encryption-key-do-not-use"
)

type SecurityConfig interface {
	GetTokenSigningKey() []byte
	GetCookieEncryptionKey() []byte
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetTokenSigningKey() []byte {
	return keyFromEnv(tokenSigningKeyVar, devTokenSigningKey)
}

// GetCookieEncryptionKey returns the 32-byte key sealing the upstream
// sessions cookie.
func (Security) GetCookieEncryptionKey() []byte {
	return keyFromEnv(cookieEncryptionKeyVar, devCookieEncryptionKey)
}

// keyFromEnv derives a fixed-length key from an env var, hashing whatever
// material was supplied so operators aren't forced to provide exactly 32
// bytes.
func keyFromEnv(envVar, defaultValue string) []byte {
	material := GetEnv(envVar, defaultValue)
	sum := sha256.Sum256([]byte(material))
	return sum[:]
}
