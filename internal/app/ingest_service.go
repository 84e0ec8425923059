package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tenantbot/internal/ai"
	"tenantbot/internal/config"
	"tenantbot/internal/model"
	"tenantbot/internal/pkg/pdfextract"
	"tenantbot/internal/repository"
	"tenantbot/internal/segment"
)

// Provider is the slice of the AI provider the core depends on.
type Provider interface {
	Embed(ctx context.Context, apiKey, text string) ([]float32, error)
	Complete(ctx context.Context, apiKey, model string, messages []ai.Message, temperature float64) (string, error)
}

// BlobStore holds raw uploaded document bytes.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// IngestService owns the document lifecycle state machine: it turns
// an uploaded document into queryable fragments, one run per call.
// Embedding is strictly sequential in fragment order; the fragment
// set and the processed status land in one transaction so readers
// never see a partial generation.
type IngestService struct {
	docRepo    *repository.DocumentRepository
	fragRepo   *repository.FragmentRepository
	secretRepo *repository.SecretRepository
	blob       BlobStore
	provider   Provider
	cfg        config.IngestConfig
}

func NewIngestService(
	docRepo *repository.DocumentRepository,
	fragRepo *repository.FragmentRepository,
	secretRepo *repository.SecretRepository,
	blob BlobStore,
	provider Provider,
	cfg config.IngestConfig,
) *IngestService {
	if cfg.MaxFragments <= 0 {
		cfg.MaxFragments = 200
	}
	if cfg.MaxDocumentChars <= 0 {
		cfg.MaxDocumentChars = 200000
	}
	if cfg.ProcessFragmentChars <= 0 {
		cfg.ProcessFragmentChars = 900
	}
	if cfg.EmbedFragmentChars <= 0 {
		cfg.EmbedFragmentChars = 1200
	}
	return &IngestService{
		docRepo:    docRepo,
		fragRepo:   fragRepo,
		secretRepo: secretRepo,
		blob:       blob,
		provider:   provider,
		cfg:        cfg,
	}
}

type IngestResult struct {
	DocumentID    string `json:"document_id"`
	FragmentCount int    `json:"fragment_count"`
}

// ProcessDocument runs the full pipeline for an uploaded file:
// download raw bytes, extract text, persist it, segment fixed-width,
// embed, store. Calling it again re-ingests idempotently; a document
// stuck in processing after a crash is retried the same way.
func (s *IngestService) ProcessDocument(ctx context.Context, tc TenantContext, botID, documentID string) (*IngestResult, error) {
	doc, err := s.resolve(tc, botID, documentID)
	if err != nil {
		return nil, err
	}

	// Visible state first: a crash mid-pipeline leaves the document
	// stuck in processing, never falsely uploaded.
	if err := s.docRepo.SetStatus(doc.ID, model.DocumentStatusProcessing); err != nil {
		return nil, newError(KindInternal, "Failed to update document status.")
	}

	text := strings.TrimSpace(doc.Content)
	if text == "" {
		raw, err := s.blob.Download(ctx, doc.StoragePath)
		if err != nil {
			s.failDocument(doc.ID)
			return nil, newError(KindProvider, "Failed to download the document file.")
		}
		text, err = pdfextract.ExtractText(raw)
		if err != nil || text == "" {
			s.failDocument(doc.ID)
			return nil, newError(KindEmptyContent, "No readable text found in PDF.")
		}
		if runes := []rune(text); len(runes) > s.cfg.MaxDocumentChars {
			// Bound what a single upload can push into the row store.
			// Cut on a rune boundary so the tail stays valid UTF-8.
			text = string(runes[:s.cfg.MaxDocumentChars])
		}
		title := doc.Title
		if title == "" {
			title = "Untitled PDF"
		}
		if err := s.docRepo.SetContent(doc.ID, text, title); err != nil {
			s.failDocument(doc.ID)
			return nil, newError(KindInternal, "Failed to save extracted text.")
		}
	}

	return s.embedAndStore(ctx, tc, doc, text, segment.Config{
		Policy:   segment.PolicyFixed,
		MaxChars: s.cfg.ProcessFragmentChars,
	})
}

// ReembedDocument re-runs segmentation and embedding over the text
// already attached to the document, using the paragraph-aware policy.
func (s *IngestService) ReembedDocument(ctx context.Context, tc TenantContext, botID, documentID string) (*IngestResult, error) {
	doc, err := s.resolve(tc, botID, documentID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(doc.Content)
	if text == "" {
		return nil, newError(KindEmptyContent, "Document has no content.")
	}

	if err := s.docRepo.SetStatus(doc.ID, model.DocumentStatusProcessing); err != nil {
		return nil, newError(KindInternal, "Failed to update document status.")
	}

	return s.embedAndStore(ctx, tc, doc, text, segment.Config{
		Policy:   segment.PolicyParagraph,
		MaxChars: s.cfg.EmbedFragmentChars,
	})
}

func (s *IngestService) resolve(tc TenantContext, botID, documentID string) (*model.Document, *Error) {
	if botID == "" || documentID == "" {
		return nil, newError(KindInvalidInput, "Missing botId or documentId.")
	}
	doc, err := s.docRepo.GetScoped(documentID, botID, tc.TenantID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to load document.")
	}
	if doc == nil {
		return nil, newError(KindNotFound, "Document not found for this bot.")
	}
	return doc, nil
}

func (s *IngestService) embedAndStore(ctx context.Context, tc TenantContext, doc *model.Document, text string, segCfg segment.Config) (*IngestResult, error) {
	secret, err := s.secretRepo.GetByTenantID(tc.TenantID)
	if err != nil {
		s.failDocument(doc.ID)
		return nil, newError(KindInternal, "Failed to load workspace settings.")
	}
	if secret == nil {
		// BYOK: no shared platform key ever substitutes for the
		// tenant's own.
		s.failDocument(doc.ID)
		return nil, missingCredentialError(AudienceTenant)
	}

	fragments := segment.Split(text, segCfg)
	if len(fragments) == 0 {
		s.failDocument(doc.ID)
		return nil, newError(KindEmptyContent, "Document has no content.")
	}
	if len(fragments) > s.cfg.MaxFragments {
		// Caps per-document provider spend and run latency.
		s.failDocument(doc.ID)
		return nil, newError(KindTooManyFragments,
			fmt.Sprintf("Too many fragments (%d). Please upload a smaller document.", len(fragments)))
	}

	rows := make([]model.Fragment, len(fragments))
	for i, content := range fragments {
		vector, err := s.provider.Embed(ctx, secret.ProviderKey, content)
		if err != nil {
			s.failDocument(doc.ID)
			return nil, classifyProviderError(err, AudienceTenant)
		}
		rows[i] = model.Fragment{
			TenantID:   doc.TenantID,
			BotID:      doc.BotID,
			DocumentID: doc.ID,
			SeqIndex:   i,
			Content:    content,
		}
		rows[i].SetEmbedding(vector)
	}

	if err := s.docRepo.ReplaceFragments(doc.ID, rows); err != nil {
		s.failDocument(doc.ID)
		return nil, newError(KindInternal, "Failed to store fragments.")
	}

	return &IngestResult{DocumentID: doc.ID, FragmentCount: len(rows)}, nil
}

func (s *IngestService) failDocument(docID string) {
	if err := s.docRepo.SetStatus(docID, model.DocumentStatusError); err != nil {
		log.Printf("mark document %s as error failed: %v", docID, err)
	}
}
