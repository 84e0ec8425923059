package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tenantbot/internal/ai"
	"tenantbot/internal/model"
	"tenantbot/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{}, &model.TenantSecret{}, &model.Bot{},
		&model.Document{}, &model.Fragment{}, &model.ChatMessage{},
	))
	return db
}

type testEnv struct {
	db         *gorm.DB
	docRepo    *repository.DocumentRepository
	fragRepo   *repository.FragmentRepository
	secretRepo *repository.SecretRepository
	botRepo    *repository.BotRepository
	msgRepo    *repository.MessageRepository
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	return &testEnv{
		db:         db,
		docRepo:    repository.NewDocumentRepository(db),
		fragRepo:   repository.NewFragmentRepository(db),
		secretRepo: repository.NewSecretRepository(db),
		botRepo:    repository.NewBotRepository(db),
		msgRepo:    repository.NewMessageRepository(db),
	}
}

func (e *testEnv) seedTenant(t *testing.T, tenantID, apiKey string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Tenant{ID: tenantID, Name: tenantID}).Error)
	if apiKey != "" {
		require.NoError(t, e.secretRepo.Upsert(&model.TenantSecret{TenantID: tenantID, ProviderKey: apiKey}))
	}
}

func (e *testEnv) seedBot(t *testing.T, botID, tenantID string) *model.Bot {
	t.Helper()
	bot := &model.Bot{ID: botID, TenantID: tenantID, Name: botID, SystemPrompt: "You answer about " + botID + "."}
	require.NoError(t, e.botRepo.Create(bot))
	return bot
}

func (e *testEnv) seedDocument(t *testing.T, docID, tenantID, botID, content string) *model.Document {
	t.Helper()
	doc := &model.Document{
		ID: docID, TenantID: tenantID, BotID: botID,
		Title: "Doc " + docID, Content: content,
		StoragePath: tenantID + "/" + docID + ".pdf",
		Status:      model.DocumentStatusUploaded,
	}
	require.NoError(t, e.docRepo.Create(doc))
	return doc
}

func (e *testEnv) documentStatus(t *testing.T, docID string) string {
	t.Helper()
	var doc model.Document
	require.NoError(t, e.db.Where("id = ?", docID).First(&doc).Error)
	return doc.Status
}

// fakeProvider implements Provider with scriptable failures and a
// record of every call.
type fakeProvider struct {
	embedCalls    []string
	embedKeys     []string
	failEmbedAt   int // fail the n-th embed call (1-based); 0 = never
	embedErr      error
	completeCalls [][]ai.Message
	completeKeys  []string
	completeModel string
	completeErr   error
	reply         string
}

func (p *fakeProvider) Embed(ctx context.Context, apiKey, text string) ([]float32, error) {
	p.embedCalls = append(p.embedCalls, text)
	p.embedKeys = append(p.embedKeys, apiKey)
	if p.failEmbedAt > 0 && len(p.embedCalls) == p.failEmbedAt {
		if p.embedErr != nil {
			return nil, p.embedErr
		}
		return nil, &ai.ProviderFailure{Kind: ai.KindProviderError, Message: "boom"}
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (p *fakeProvider) Complete(ctx context.Context, apiKey, model string, messages []ai.Message, temperature float64) (string, error) {
	p.completeCalls = append(p.completeCalls, messages)
	p.completeKeys = append(p.completeKeys, apiKey)
	p.completeModel = model
	if p.completeErr != nil {
		return "", p.completeErr
	}
	if p.reply == "" {
		return "a reply", nil
	}
	return p.reply, nil
}

// fakeBlob is an in-memory BlobStore.
type fakeBlob struct {
	objects     map[string][]byte
	downloadErr error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: map[string][]byte{}}
}

func (b *fakeBlob) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	b.objects[key] = data
	return nil
}

func (b *fakeBlob) Download(ctx context.Context, key string) ([]byte, error) {
	if b.downloadErr != nil {
		return nil, b.downloadErr
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return data, nil
}

func (b *fakeBlob) Delete(ctx context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

// fakePublisher records transcript publishes in order.
type fakePublisher struct {
	published []model.ChatMessage
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, msg model.ChatMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func requireAppError(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var appErr *Error
	require.True(t, errors.As(err, &appErr), "expected *app.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	return appErr
}
