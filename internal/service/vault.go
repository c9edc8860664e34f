package service

import (
	"context"
	"fmt"

	"github.com/reanahub/reana-relay/internal/models"
)

// SecretRepository defines the persistence operations required by the
// vault service.
type SecretRepository interface {
	// Get retrieves one secret by (owner, name).
	Get(ctx context.Context, ownerID, name string) (*models.Secret, error)
	// Upsert inserts or overwrites secrets for one owner.
	Upsert(ctx context.Context, ownerID string, secrets []models.Secret) error
}

// VaultService exposes per-user secrets. Callers can only ever address
// secrets through an owner id they already authenticated as; there is no
// cross-owner enumeration.
type VaultService struct {
	repo SecretRepository
}

// NewVaultService constructs a VaultService using the provided repository.
func NewVaultService(repo SecretRepository) *VaultService {
	return &VaultService{repo: repo}
}

// GetSecret returns the raw value of the named secret for the given owner.
func (s *VaultService) GetSecret(ctx context.Context, ownerID, name string) ([]byte, error) {
	secret, err := s.repo.Get(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	return secret.Value, nil
}

// SetSecrets stores the given secrets for the owner, overwriting existing
// values with the same names.
func (s *VaultService) SetSecrets(ctx context.Context, ownerID string, secrets []models.Secret) error {
	if err := s.repo.Upsert(ctx, ownerID, secrets); err != nil {
		return fmt.Errorf("store secrets: %w", err)
	}
	return nil
}
