package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantbot/internal/ai"
	"tenantbot/internal/config"
	"tenantbot/internal/model"
)

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{TopK: 6, Temperature: 0.3, HistoryLimit: 100}
}

func newChatService(env *testEnv, provider Provider, publisher TranscriptPublisher) *ChatService {
	return NewChatService(env.botRepo, env.secretRepo, env.fragRepo, env.msgRepo, provider, publisher, nil, testChatConfig())
}

func seedProcessedFragments(t *testing.T, env *testEnv, tenantID, botID, docID string, contents []string) {
	t.Helper()
	require.NoError(t, env.docRepo.Create(&model.Document{
		ID: docID, TenantID: tenantID, BotID: botID, Title: docID,
		Status: model.DocumentStatusProcessed,
	}))
	rows := make([]model.Fragment, len(contents))
	for i, content := range contents {
		rows[i] = model.Fragment{TenantID: tenantID, BotID: botID, DocumentID: docID, SeqIndex: i, Content: content}
		rows[i].SetEmbedding([]float32{float32(len(content)), 1, 0})
	}
	require.NoError(t, env.db.Create(&rows).Error)
}

func TestAnswerWithKnowledge(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")
	seedProcessedFragments(t, env, "t1", "b1", "d1", []string{"refunds take 5 days", "support is 24/7"})

	provider := &fakeProvider{reply: "Refunds take five business days."}
	publisher := &fakePublisher{}
	svc := newChatService(env, provider, publisher)

	result, err := svc.Answer(context.Background(), AnswerInput{
		BotID:        "b1",
		SessionID:    "s1",
		Message:      "how long do refunds take?",
		UseKnowledge: true,
		Audience:     AudienceEndUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "Refunds take five business days.", result.Reply)
	assert.True(t, result.UsedContext)

	// One query embedding, then one completion carrying the context
	// as a second system message.
	require.Len(t, provider.embedCalls, 1)
	require.Len(t, provider.completeCalls, 1)
	messages := provider.completeCalls[0]
	require.Len(t, messages, 3)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "system", messages[1].Role)
	assert.Contains(t, messages[1].Content, "reply normally")
	assert.Contains(t, messages[1].Content, "- refunds take 5 days")
	assert.Equal(t, "user", messages[2].Role)

	// Transcript: user message attempted before the assistant reply.
	require.Len(t, publisher.published, 2)
	assert.Equal(t, model.RoleUser, publisher.published[0].Role)
	assert.Equal(t, model.RoleAssistant, publisher.published[1].Role)
	assert.Equal(t, "t1", publisher.published[0].TenantID)
}

func TestAnswerWithoutKnowledgeSkipsEmbedding(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")

	provider := &fakeProvider{}
	svc := newChatService(env, provider, &fakePublisher{})

	result, err := svc.Answer(context.Background(), AnswerInput{
		BotID:    "b1",
		Message:  "hello",
		Audience: AudienceEndUser,
	})
	require.NoError(t, err)
	assert.False(t, result.UsedContext)
	assert.Empty(t, provider.embedCalls)
	require.Len(t, provider.completeCalls, 1)
	assert.Len(t, provider.completeCalls[0], 2)
}

func TestAnswerRetrievalDegradesGracefully(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")

	provider := &fakeProvider{
		failEmbedAt: 1,
		embedErr:    &ai.ProviderFailure{Kind: ai.KindRateLimited, Message: "quota"},
		reply:       "answered anyway",
	}
	svc := newChatService(env, provider, &fakePublisher{})

	result, err := svc.Answer(context.Background(), AnswerInput{
		BotID:        "b1",
		Message:      "hello",
		UseKnowledge: true,
		Audience:     AudienceEndUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "answered anyway", result.Reply)
	assert.False(t, result.UsedContext)
	// Only the bot instruction and the user message went out.
	require.Len(t, provider.completeCalls, 1)
	assert.Len(t, provider.completeCalls[0], 2)
}

func TestAnswerSearchFailureDegradesGracefully(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")
	// Dropping the fragments table makes the nearest-neighbor lookup
	// itself error, not just come back empty.
	require.NoError(t, env.db.Migrator().DropTable(&model.Fragment{}))

	provider := &fakeProvider{reply: "answered anyway"}
	svc := newChatService(env, provider, &fakePublisher{})

	result, err := svc.Answer(context.Background(), AnswerInput{
		BotID:        "b1",
		Message:      "hello",
		UseKnowledge: true,
		Audience:     AudienceEndUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "answered anyway", result.Reply)
	assert.False(t, result.UsedContext)
	require.Len(t, provider.embedCalls, 1)
	require.Len(t, provider.completeCalls, 1)
	assert.Len(t, provider.completeCalls[0], 2)
}

func TestAnswerBotNotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := newChatService(env, &fakeProvider{}, &fakePublisher{})

	_, err := svc.Answer(context.Background(), AnswerInput{BotID: "missing", Message: "hi"})
	requireAppError(t, err, KindNotFound)
}

func TestAnswerCrossTenantReadsAsNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")

	svc := newChatService(env, &fakeProvider{}, &fakePublisher{})
	_, err := svc.Answer(context.Background(), AnswerInput{
		BotID:    "b1",
		Message:  "hi",
		TenantID: "t2",
		Audience: AudienceTenant,
	})
	requireAppError(t, err, KindNotFound)
}

func TestAnswerCredentialIsolation(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedTenant(t, "t2", "sk-tenant-two-key-000000002")
	env.seedBot(t, "b1", "t1")
	env.seedBot(t, "b2", "t2")

	provider := &fakeProvider{}
	svc := newChatService(env, provider, &fakePublisher{})

	_, err := svc.Answer(context.Background(), AnswerInput{BotID: "b1", Message: "hi"})
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), AnswerInput{BotID: "b2", Message: "hi"})
	require.NoError(t, err)

	// Each bot's turn ran on its own tenant's key.
	require.Len(t, provider.completeKeys, 2)
	assert.Equal(t, "sk-tenant-one-key-000000001", provider.completeKeys[0])
	assert.Equal(t, "sk-tenant-two-key-000000002", provider.completeKeys[1])
}

func TestAnswerMissingCredentialWording(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "")
	env.seedBot(t, "b1", "t1")
	svc := newChatService(env, &fakeProvider{}, &fakePublisher{})

	_, err := svc.Answer(context.Background(), AnswerInput{
		BotID: "b1", Message: "hi", Audience: AudienceEndUser,
	})
	appErr := requireAppError(t, err, KindMissingCredential)
	assert.Contains(t, appErr.Message, "Bot owner")

	_, err = svc.Answer(context.Background(), AnswerInput{
		BotID: "b1", Message: "hi", TenantID: "t1", Audience: AudienceTenant,
	})
	appErr = requireAppError(t, err, KindMissingCredential)
	assert.Contains(t, appErr.Message, "Settings")
}

func TestAnswerProviderQuotaWording(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")

	provider := &fakeProvider{
		completeErr: &ai.ProviderFailure{Kind: ai.KindRateLimited, Status: 429, Message: "insufficient_quota"},
	}
	svc := newChatService(env, provider, &fakePublisher{})

	_, err := svc.Answer(context.Background(), AnswerInput{
		BotID: "b1", Message: "hi", Audience: AudienceEndUser,
	})
	appErr := requireAppError(t, err, KindRateLimited)
	assert.Contains(t, appErr.Message, "contact the website owner")
	assert.NotContains(t, appErr.Message, "insufficient_quota")
}

func TestAnswerPublishFailureDoesNotFailReply(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")

	svc := newChatService(env, &fakeProvider{reply: "still here"}, &fakePublisher{err: assert.AnError})
	result, err := svc.Answer(context.Background(), AnswerInput{BotID: "b1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "still here", result.Reply)
}

func TestHistoryScopedToTenant(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, "t1", "sk-tenant-one-key-000000001")
	env.seedBot(t, "b1", "t1")
	require.NoError(t, env.msgRepo.Create(&model.ChatMessage{
		TenantID: "t1", BotID: "b1", SessionID: "s1", Role: model.RoleUser, Content: "hi",
	}))

	svc := newChatService(env, &fakeProvider{}, &fakePublisher{})

	messages, err := svc.History(context.Background(), TenantContext{TenantID: "t1"}, "b1", "s1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	_, err = svc.History(context.Background(), TenantContext{TenantID: "t2"}, "b1", "s1")
	requireAppError(t, err, KindNotFound)
}
