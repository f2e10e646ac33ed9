package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	baseURLVar     = "BASE_URL"
	clientsVar     = "CLIENTS_FILE"
	providersVar   = "UPSTREAM_PROVIDERS_FILE"
	environmentVar = "ENV"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetClientsFile() string
	GetUpstreamProvidersFile() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Beacon Auth Server")
}

// GetBaseURL returns the public base URL of this server, used for issuer
// claims and upstream callback URLs.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

// GetClientsFile points at the JSON file holding the registered OAuth2
// clients, loaded once at startup into a read-only snapshot.
func (EnvVars) GetClientsFile() string {
	return GetEnv(clientsVar, "./data/clients.json")
}

// GetUpstreamProvidersFile points at the JSON file holding the configured
// upstream identity providers.
func (EnvVars) GetUpstreamProvidersFile() string {
	return GetEnv(providersVar, "./data/upstream_providers.json")
}

func (EnvVars) GetEnv() string {
	return GetEnv(environmentVar, "DEV")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
