package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// envKeys maps service identifiers to their conventional environment
// variable names.
var envKeys = map[string]string{
	ServiceCerebras: "CEREBRAS_API_KEY",
}

// EnvProvider provides credentials from environment variables. It is a
// server-wide fallback shared by every user, so it is only wired in when
// explicitly enabled in configuration.
type EnvProvider struct {
	prefix string // Optional prefix filter (e.g., "APPGENIUS_")
}

// NewEnvProvider creates a new environment provider
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		prefix: prefix,
	}
}

// Name returns the provider name
func (p *EnvProvider) Name() string {
	return "environment"
}

// GetCredential retrieves a credential from environment variables
func (p *EnvProvider) GetCredential(ctx context.Context, userID, service string) (*Credential, error) {
	envKey, ok := envKeys[service]
	if !ok {
		envKey = strings.ToUpper(service) + "_API_KEY"
	}

	// First try exact key
	value := os.Getenv(envKey)
	if value != "" {
		return &Credential{
			Service: service,
			Value:   value,
			Source:  "environment",
		}, nil
	}

	// Try with prefix
	if p.prefix != "" {
		value = os.Getenv(p.prefix + envKey)
		if value != "" {
			return &Credential{
				Service: service,
				Value:   value,
				Source:  "environment",
			}, nil
		}
	}

	return nil, fmt.Errorf("credential not found: %s", envKey)
}
