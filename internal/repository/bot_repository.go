package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tenantbot/internal/model"
)

type BotRepository struct {
	db *gorm.DB
}

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{db: db}
}

func (r *BotRepository) Create(bot *model.Bot) error {
	if err := r.db.Create(bot).Error; err != nil {
		return fmt.Errorf("create bot failed: %w", err)
	}
	return nil
}

// GetByID loads a bot regardless of tenant; the widget surface
// resolves the owning tenant from the bot row itself.
func (r *BotRepository) GetByID(id string) (*model.Bot, error) {
	var bot model.Bot
	if err := r.db.Where("id = ?", id).First(&bot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bot failed: %w", err)
	}
	return &bot, nil
}

func (r *BotRepository) ListByTenantID(tenantID string) ([]model.Bot, error) {
	var bots []model.Bot
	if err := r.db.Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&bots).Error; err != nil {
		return nil, fmt.Errorf("list bots failed: %w", err)
	}
	return bots, nil
}
