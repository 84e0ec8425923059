package app

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"tenantbot/internal/model"
	"tenantbot/internal/repository"
)

// DocumentService manages the document rows and their raw bytes in
// blob storage; ingestion itself is IngestService's job.
type DocumentService struct {
	docRepo *repository.DocumentRepository
	botRepo *repository.BotRepository
	blob    BlobStore
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	botRepo *repository.BotRepository,
	blob BlobStore,
) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		botRepo: botRepo,
		blob:    blob,
	}
}

// Upload stores the raw bytes and creates the document in uploaded
// state, ready for ProcessDocument.
func (s *DocumentService) Upload(ctx context.Context, tc TenantContext, botID, title string, data []byte) (*model.Document, error) {
	if botID == "" || len(data) == 0 {
		return nil, newError(KindInvalidInput, "Missing botId or file.")
	}
	bot, err := s.botRepo.GetByID(botID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to load bot.")
	}
	if bot == nil || bot.TenantID != tc.TenantID {
		return nil, newError(KindNotFound, "Bot not found.")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled PDF"
	}

	id := uuid.NewString()
	doc := &model.Document{
		ID:          id,
		TenantID:    tc.TenantID,
		BotID:       botID,
		Title:       title,
		Status:      model.DocumentStatusUploaded,
		StoragePath: tc.TenantID + "/" + id + ".pdf",
	}
	if err := s.blob.Upload(ctx, doc.StoragePath, data, "application/pdf"); err != nil {
		return nil, newError(KindInternal, "Failed to store the document file.")
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, newError(KindInternal, "Failed to create the document.")
	}
	return doc, nil
}

func (s *DocumentService) List(tc TenantContext, botID string) ([]model.Document, error) {
	if botID == "" {
		return nil, newError(KindInvalidInput, "Missing botId.")
	}
	docs, err := s.docRepo.ListByBot(tc.TenantID, botID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to list documents.")
	}
	return docs, nil
}

// Delete removes the document and its fragments; the blob object is
// removed best-effort afterwards.
func (s *DocumentService) Delete(ctx context.Context, tc TenantContext, botID, documentID string) error {
	doc, err := s.docRepo.GetScoped(documentID, botID, tc.TenantID)
	if err != nil {
		return newError(KindInternal, "Failed to load document.")
	}
	if doc == nil {
		return newError(KindNotFound, "Document not found for this bot.")
	}
	if err := s.docRepo.Delete(doc.ID, tc.TenantID); err != nil {
		return newError(KindInternal, "Failed to delete the document.")
	}
	if doc.StoragePath != "" {
		if err := s.blob.Delete(ctx, doc.StoragePath); err != nil {
			log.Printf("delete blob %s failed: %v", doc.StoragePath, err)
		}
	}
	return nil
}
