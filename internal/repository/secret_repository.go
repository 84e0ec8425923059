package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tenantbot/internal/model"
)

type SecretRepository struct {
	db *gorm.DB
}

func NewSecretRepository(db *gorm.DB) *SecretRepository {
	return &SecretRepository{db: db}
}

// GetByTenantID returns nil without error when the tenant has not
// saved a key yet; callers treat absence as MissingCredential.
func (r *SecretRepository) GetByTenantID(tenantID string) (*model.TenantSecret, error) {
	var secret model.TenantSecret
	if err := r.db.Where("tenant_id = ?", tenantID).First(&secret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant secret failed: %w", err)
	}
	return &secret, nil
}

// Upsert replaces the tenant's key in place.
func (r *SecretRepository) Upsert(secret *model.TenantSecret) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider_key", "updated_at"}),
	}).Create(secret).Error
	if err != nil {
		return fmt.Errorf("upsert tenant secret failed: %w", err)
	}
	return nil
}

func (r *SecretRepository) DeleteByTenantID(tenantID string) error {
	if err := r.db.Where("tenant_id = ?", tenantID).Delete(&model.TenantSecret{}).Error; err != nil {
		return fmt.Errorf("delete tenant secret failed: %w", err)
	}
	return nil
}
