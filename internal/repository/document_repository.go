package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tenantbot/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// GetScoped loads a document only when all three scope keys match.
// A mismatch on any key reads as not-found, never as a cross-tenant
// fallback.
func (r *DocumentRepository) GetScoped(id, botID, tenantID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ? AND bot_id = ? AND tenant_id = ?", id, botID, tenantID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByBot(tenantID, botID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Order("created_at DESC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) SetStatus(id, status string) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("set document status failed: %w", err)
	}
	return nil
}

// SetContent stores the extracted text and resolved title.
func (r *DocumentRepository) SetContent(id, content, title string) error {
	updates := map[string]interface{}{"content": content, "title": title}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("set document content failed: %w", err)
	}
	return nil
}

// Delete removes the document and its fragments in one transaction.
func (r *DocumentRepository) Delete(id, tenantID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Fragment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Document{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

// ReplaceFragments swaps the document's fragment set and flips its
// status to processed atomically, so readers never observe a partial
// generation next to a processed status.
func (r *DocumentRepository) ReplaceFragments(docID string, fragments []model.Fragment) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&model.Fragment{}).Error; err != nil {
			return err
		}
		if len(fragments) > 0 {
			if err := tx.Create(&fragments).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Document{}).Where("id = ?", docID).
			Update("status", model.DocumentStatusProcessed).Error
	})
	if err != nil {
		return fmt.Errorf("replace fragments failed: %w", err)
	}
	return nil
}
