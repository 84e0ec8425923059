package app

import (
	"context"
	"log"
	"strings"

	"tenantbot/internal/ai"
	"tenantbot/internal/config"
	"tenantbot/internal/model"
	"tenantbot/internal/repository"
)

// TranscriptPublisher enqueues transcript rows for async persistence.
type TranscriptPublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

// TranscriptCache caches session transcripts for the history read
// path. The dirty marker bridges the gap between a published message
// and its async persistence.
type TranscriptCache interface {
	GetTranscript(ctx context.Context, sessionKey string) ([]model.ChatMessage, bool, error)
	SetTranscript(ctx context.Context, sessionKey string, messages []model.ChatMessage) error
	DeleteTranscript(ctx context.Context, sessionKey string) error
	MarkDirty(ctx context.Context, sessionKey string) error
	IsDirty(ctx context.Context, sessionKey string) (bool, error)
}

// ChatService answers a user message with the bot's instruction plus,
// when requested and available, retrieved knowledge fragments.
// Retrieval is a quality enhancement: any failure in it degrades the
// answer to instruction-only rather than failing the request.
type ChatService struct {
	botRepo    *repository.BotRepository
	secretRepo *repository.SecretRepository
	fragRepo   *repository.FragmentRepository
	msgRepo    *repository.MessageRepository
	provider   Provider
	publisher  TranscriptPublisher
	cache      TranscriptCache
	cfg        config.ChatConfig
}

func NewChatService(
	botRepo *repository.BotRepository,
	secretRepo *repository.SecretRepository,
	fragRepo *repository.FragmentRepository,
	msgRepo *repository.MessageRepository,
	provider Provider,
	publisher TranscriptPublisher,
	cache TranscriptCache,
	cfg config.ChatConfig,
) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = 6
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	return &ChatService{
		botRepo:    botRepo,
		secretRepo: secretRepo,
		fragRepo:   fragRepo,
		msgRepo:    msgRepo,
		provider:   provider,
		publisher:  publisher,
		cache:      cache,
		cfg:        cfg,
	}
}

type AnswerInput struct {
	BotID        string
	SessionID    string
	Message      string
	UseKnowledge bool
	// TenantID is empty on the public widget surface, where the
	// owning tenant is resolved from the bot itself. When set, it
	// must match the bot's tenant.
	TenantID string
	Audience Audience
}

type AnswerResult struct {
	Reply string `json:"reply"`
	// UsedContext reports whether retrieved fragments backed the
	// reply (answered-with-context vs answered-without-context).
	UsedContext bool `json:"used_context"`
}

func (s *ChatService) Answer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	message := strings.TrimSpace(input.Message)
	if input.BotID == "" || message == "" {
		return nil, newError(KindInvalidInput, "Missing botId or message.")
	}

	bot, err := s.botRepo.GetByID(input.BotID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to load bot.")
	}
	if bot == nil {
		return nil, newError(KindNotFound, "Bot not found.")
	}
	if input.TenantID != "" && input.TenantID != bot.TenantID {
		// Cross-tenant access reads as absent, never as a fallback.
		return nil, newError(KindNotFound, "Bot not found.")
	}

	secret, err := s.secretRepo.GetByTenantID(bot.TenantID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to load bot owner settings.")
	}
	if secret == nil {
		return nil, missingCredentialError(input.Audience)
	}

	contextBlock := ""
	if input.UseKnowledge {
		contextBlock = s.retrieveContext(ctx, bot, secret.ProviderKey, message)
	}

	messages := make([]ai.Message, 0, 3)
	messages = append(messages, ai.Message{Role: "system", Content: bot.EffectiveSystemPrompt()})
	if contextBlock != "" {
		messages = append(messages, ai.Message{
			Role: "system",
			Content: "Use the context below when it helps answer the user.\n" +
				"If the context does not contain the answer, reply normally.\n\n" +
				"Context:\n" + contextBlock,
		})
	}
	messages = append(messages, ai.Message{Role: "user", Content: message})

	reply, err := s.provider.Complete(ctx, secret.ProviderKey, bot.EffectiveModel(), messages, s.cfg.Temperature)
	if err != nil {
		return nil, classifyProviderError(err, input.Audience)
	}
	reply = strings.TrimSpace(reply)

	// Transcript persistence is best-effort: user message first, then
	// the reply. Neither failure reaches the caller.
	s.record(ctx, bot, input.SessionID, model.RoleUser, message)
	s.record(ctx, bot, input.SessionID, model.RoleAssistant, reply)
	s.invalidateTranscript(ctx, bot, input.SessionID)

	return &AnswerResult{Reply: reply, UsedContext: contextBlock != ""}, nil
}

// retrieveContext embeds the question and searches the bot's
// fragments. Every failure here is swallowed: availability of the
// chat surface beats completeness of the context.
func (s *ChatService) retrieveContext(ctx context.Context, bot *model.Bot, apiKey, message string) string {
	vector, err := s.provider.Embed(ctx, apiKey, message)
	if err != nil {
		log.Printf("chat retrieval: embed query failed for bot %s: %v", bot.ID, err)
		return ""
	}
	results, err := s.fragRepo.Search(bot.TenantID, bot.ID, vector, s.cfg.TopK)
	if err != nil {
		log.Printf("chat retrieval: fragment search failed for bot %s: %v", bot.ID, err)
		return ""
	}

	var lines []string
	for _, r := range results {
		if r.Content != "" {
			lines = append(lines, "- "+r.Content)
		}
	}
	return strings.Join(lines, "\n")
}

func (s *ChatService) record(ctx context.Context, bot *model.Bot, sessionID, role, content string) {
	if s.publisher == nil || content == "" {
		return
	}
	err := s.publisher.Publish(ctx, model.ChatMessage{
		TenantID:  bot.TenantID,
		BotID:     bot.ID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		log.Printf("publish transcript for bot %s failed: %v", bot.ID, err)
	}
}

func (s *ChatService) invalidateTranscript(ctx context.Context, bot *model.Bot, sessionID string) {
	if s.cache == nil || sessionID == "" {
		return
	}
	key := transcriptKey(bot.TenantID, bot.ID, sessionID)
	_ = s.cache.MarkDirty(ctx, key)
	_ = s.cache.DeleteTranscript(ctx, key)
}

// History returns the session transcript for a tenant's own bot,
// served from cache while it is neither dirty nor stale.
func (s *ChatService) History(ctx context.Context, tc TenantContext, botID, sessionID string) ([]model.ChatMessage, error) {
	if botID == "" || sessionID == "" {
		return nil, newError(KindInvalidInput, "Missing botId or sessionId.")
	}
	bot, err := s.botRepo.GetByID(botID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to load bot.")
	}
	if bot == nil || bot.TenantID != tc.TenantID {
		return nil, newError(KindNotFound, "Bot not found.")
	}

	key := transcriptKey(bot.TenantID, bot.ID, sessionID)
	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, key); err == nil && !dirty {
			if cached, hit, err := s.cache.GetTranscript(ctx, key); err == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.msgRepo.ListBySession(bot.TenantID, bot.ID, sessionID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, newError(KindInternal, "Failed to load chat history.")
	}
	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, key); err == nil && !dirty {
			_ = s.cache.SetTranscript(ctx, key, messages)
		}
	}
	return messages, nil
}

func transcriptKey(tenantID, botID, sessionID string) string {
	return tenantID + ":" + botID + ":" + sessionID
}
