package config

// Config is the full configuration surface consumed by the server, composed
// from narrow per-concern interfaces so components can depend on just the
// slice they need.
type Config interface {
	EnvConfig
	SecurityConfig
}

type mainConfig struct {
	EnvVars
	Security
}

func New() Config {
	return mainConfig{}
}
