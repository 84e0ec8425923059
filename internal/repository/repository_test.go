package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tenantbot/internal/model"
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

func seedFragment(t *testing.T, db *gorm.DB, tenantID, botID, docID string, idx int, content string, vec []float32) {
	t.Helper()
	f := model.Fragment{TenantID: tenantID, BotID: botID, DocumentID: docID, SeqIndex: idx, Content: content}
	f.SetEmbedding(vec)
	require.NoError(t, db.Create(&f).Error)
}

func TestDocumentGetScoped(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)

	require.NoError(t, repo.Create(&model.Document{
		ID: "doc-1", TenantID: "tenant-a", BotID: "bot-a", Title: "Guide", Status: model.DocumentStatusUploaded,
	}))

	doc, err := repo.GetScoped("doc-1", "bot-a", "tenant-a")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Guide", doc.Title)

	// Any scope-key mismatch reads as absent.
	for _, tc := range [][3]string{
		{"doc-1", "bot-a", "tenant-b"},
		{"doc-1", "bot-b", "tenant-a"},
		{"doc-2", "bot-a", "tenant-a"},
	} {
		doc, err := repo.GetScoped(tc[0], tc[1], tc[2])
		require.NoError(t, err)
		assert.Nil(t, doc)
	}
}

func TestReplaceFragmentsAtomicSwap(t *testing.T) {
	db := newTestDB(t)
	docRepo := NewDocumentRepository(db)
	fragRepo := NewFragmentRepository(db)

	require.NoError(t, docRepo.Create(&model.Document{
		ID: "doc-1", TenantID: "t1", BotID: "b1", Title: "Doc", Status: model.DocumentStatusProcessing,
	}))
	seedFragment(t, db, "t1", "b1", "doc-1", 0, "stale", []float32{1, 0})

	next := make([]model.Fragment, 2)
	for i, content := range []string{"fresh one", "fresh two"} {
		next[i] = model.Fragment{TenantID: "t1", BotID: "b1", DocumentID: "doc-1", SeqIndex: i, Content: content}
		next[i].SetEmbedding([]float32{float32(i), 1})
	}
	require.NoError(t, docRepo.ReplaceFragments("doc-1", next))

	fragments, err := fragRepo.ListByDocumentID("doc-1")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "fresh one", fragments[0].Content)
	assert.Equal(t, 1, fragments[1].SeqIndex)

	doc, err := docRepo.GetScoped("doc-1", "b1", "t1")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusProcessed, doc.Status)
}

func TestFragmentSearchScopingAndStatus(t *testing.T) {
	db := newTestDB(t)
	docRepo := NewDocumentRepository(db)
	fragRepo := NewFragmentRepository(db)

	require.NoError(t, docRepo.Create(&model.Document{ID: "d-ok", TenantID: "t1", BotID: "b1", Title: "ok", Status: model.DocumentStatusProcessed}))
	require.NoError(t, docRepo.Create(&model.Document{ID: "d-err", TenantID: "t1", BotID: "b1", Title: "err", Status: model.DocumentStatusError}))
	require.NoError(t, docRepo.Create(&model.Document{ID: "d-other", TenantID: "t2", BotID: "b2", Title: "other", Status: model.DocumentStatusProcessed}))

	seedFragment(t, db, "t1", "b1", "d-ok", 0, "close match", []float32{1, 0})
	seedFragment(t, db, "t1", "b1", "d-ok", 1, "far match", []float32{0, 1})
	seedFragment(t, db, "t1", "b1", "d-err", 0, "should be invisible", []float32{1, 0})
	seedFragment(t, db, "t2", "b2", "d-other", 0, "other tenant", []float32{1, 0})

	results, err := fragRepo.Search("t1", "b1", []float32{1, 0}, 6)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close match", results[0].Content)
	assert.Greater(t, results[0].Score, results[1].Score)

	// topK truncates.
	results, err = fragRepo.Search("t1", "b1", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "close match", results[0].Content)
}

func TestSecretUpsertMaskAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewSecretRepository(db)

	require.NoError(t, repo.Upsert(&model.TenantSecret{TenantID: "t1", ProviderKey: "sk-proj-abcdef1234567890wxyz"}))
	require.NoError(t, repo.Upsert(&model.TenantSecret{TenantID: "t1", ProviderKey: "sk-proj-second0000000000key1"}))

	secret, err := repo.GetByTenantID("t1")
	require.NoError(t, err)
	require.NotNil(t, secret)
	assert.Equal(t, "sk-proj-second0000000000key1", secret.ProviderKey)

	masked := secret.MaskedKey()
	assert.Equal(t, "sk-pro", masked[:6])
	assert.Equal(t, "key1", masked[len(masked)-4:])
	assert.NotContains(t, masked, "second")

	require.NoError(t, repo.DeleteByTenantID("t1"))
	secret, err = repo.GetByTenantID("t1")
	require.NoError(t, err)
	assert.Nil(t, secret)
}

func TestMaskKeyShort(t *testing.T) {
	assert.Equal(t, "**********", model.MaskKey("sk-short"))
}

func TestMessageOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	require.NoError(t, repo.Create(&model.ChatMessage{TenantID: "t1", BotID: "b1", SessionID: "s1", Role: model.RoleUser, Content: "question"}))
	require.NoError(t, repo.Create(&model.ChatMessage{TenantID: "t1", BotID: "b1", SessionID: "s1", Role: model.RoleAssistant, Content: "answer"}))
	require.NoError(t, repo.Create(&model.ChatMessage{TenantID: "t1", BotID: "b1", SessionID: "s2", Role: model.RoleUser, Content: "elsewhere"}))

	messages, err := repo.ListBySession("t1", "b1", "s1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, model.RoleAssistant, messages[1].Role)
}
