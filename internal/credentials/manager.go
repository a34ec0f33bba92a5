// Package credentials resolves per-user API keys for hosted model services.
package credentials

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/common/logger"
)

// ServiceCerebras is the service identifier for the hosted completion API.
const ServiceCerebras = "cerebras"

// Credential is a resolved API key with its origin.
type Credential struct {
	Service string
	Value   string
	Source  string
	// KeyID is set when the credential came from the key store.
	KeyID string
}

// Provider resolves a credential for a user and service.
type Provider interface {
	Name() string
	GetCredential(ctx context.Context, userID, service string) (*Credential, error)
}

// Manager tries providers in order and returns the first credential found.
// The key store always runs first so a user's own key wins over any
// server-wide fallback.
type Manager struct {
	providers []Provider
	logger    *logger.Logger
}

// NewManager creates a manager over the given providers, tried in order.
func NewManager(lg *logger.Logger, providers ...Provider) *Manager {
	return &Manager{providers: providers, logger: lg}
}

// Resolve returns the first credential any provider yields for the user
// and service.
func (m *Manager) Resolve(ctx context.Context, userID, service string) (*Credential, error) {
	for _, provider := range m.providers {
		cred, err := provider.GetCredential(ctx, userID, service)
		if err != nil {
			continue
		}
		m.logger.Debug("credential resolved",
			zap.String("service", service),
			zap.String("source", provider.Name()))
		return cred, nil
	}
	return nil, fmt.Errorf("no credential configured for service: %s", service)
}
