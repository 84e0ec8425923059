package repository

import (
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"tenantbot/internal/model"
)

type FragmentRepository struct {
	db *gorm.DB
}

func NewFragmentRepository(db *gorm.DB) *FragmentRepository {
	return &FragmentRepository{db: db}
}

func (r *FragmentRepository) ListByDocumentID(documentID string) ([]model.Fragment, error) {
	var fragments []model.Fragment
	err := r.db.Where("document_id = ?", documentID).Order("seq_index ASC").Find(&fragments).Error
	if err != nil {
		return nil, fmt.Errorf("list fragments failed: %w", err)
	}
	return fragments, nil
}

func (r *FragmentRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.Fragment{}).Error; err != nil {
		return fmt.Errorf("delete fragments failed: %w", err)
	}
	return nil
}

// SearchResult is one retrieval hit.
type SearchResult struct {
	Content string
	Score   float64
}

// Search scores the query vector against every fragment of the
// tenant's bot whose document is processed, returning the topK best
// by cosine similarity. Fragments of documents mid-ingestion or in
// error are invisible here, which is what makes fragment replacement
// all-or-nothing from the reader's side.
func (r *FragmentRepository) Search(tenantID, botID string, query []float32, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	var fragments []model.Fragment
	err := r.db.
		Select("fragments.*").
		Joins("JOIN documents ON documents.id = fragments.document_id").
		Where("fragments.tenant_id = ? AND fragments.bot_id = ? AND documents.status = ?",
			tenantID, botID, model.DocumentStatusProcessed).
		Find(&fragments).Error
	if err != nil {
		return nil, fmt.Errorf("search fragments failed: %w", err)
	}

	results := make([]SearchResult, 0, len(fragments))
	for i := range fragments {
		score := cosineSimilarity(query, fragments[i].EmbeddingVector())
		results = append(results, SearchResult{Content: fragments[i].Content, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
