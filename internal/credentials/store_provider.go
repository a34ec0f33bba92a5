package credentials

import (
	"context"

	"github.com/appgenius/appgenius/internal/project/repository"
)

// StoreProvider resolves credentials from the per-user API key store.
type StoreProvider struct {
	repo repository.Repository
}

// NewStoreProvider creates a provider backed by the key repository.
func NewStoreProvider(repo repository.Repository) *StoreProvider {
	return &StoreProvider{repo: repo}
}

// Name returns the provider name
func (p *StoreProvider) Name() string {
	return "keystore"
}

// GetCredential looks up the user's stored key for the service and records
// its use.
func (p *StoreProvider) GetCredential(ctx context.Context, userID, service string) (*Credential, error) {
	key, err := p.repo.GetAPIKeyByService(ctx, userID, service)
	if err != nil {
		return nil, err
	}
	// Best effort; a failed touch never blocks a generation.
	_ = p.repo.TouchAPIKey(ctx, key.ID)
	return &Credential{
		Service: service,
		Value:   key.Key,
		Source:  "keystore",
		KeyID:   key.ID,
	}, nil
}
