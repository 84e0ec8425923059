package app

import (
	"strings"

	"tenantbot/internal/model"
	"tenantbot/internal/repository"
)

// SettingsService manages the tenant's provider credential. The raw
// key is write-only from the caller's perspective: reads always
// return the masked form.
type SettingsService struct {
	secretRepo *repository.SecretRepository
}

func NewSettingsService(secretRepo *repository.SecretRepository) *SettingsService {
	return &SettingsService{secretRepo: secretRepo}
}

// SetCredential replaces the tenant's provider key and returns the
// masked form for display.
func (s *SettingsService) SetCredential(tc TenantContext, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", newError(KindInvalidInput, "Missing API key.")
	}
	err := s.secretRepo.Upsert(&model.TenantSecret{
		TenantID:    tc.TenantID,
		ProviderKey: key,
	})
	if err != nil {
		return "", newError(KindInternal, "Failed to save the API key.")
	}
	return model.MaskKey(key), nil
}

// Credential returns the masked key, or ok=false when none is saved.
func (s *SettingsService) Credential(tc TenantContext) (string, bool, error) {
	secret, err := s.secretRepo.GetByTenantID(tc.TenantID)
	if err != nil {
		return "", false, newError(KindInternal, "Failed to load workspace settings.")
	}
	if secret == nil {
		return "", false, nil
	}
	return secret.MaskedKey(), true, nil
}

func (s *SettingsService) DeleteCredential(tc TenantContext) error {
	if err := s.secretRepo.DeleteByTenantID(tc.TenantID); err != nil {
		return newError(KindInternal, "Failed to delete the API key.")
	}
	return nil
}
