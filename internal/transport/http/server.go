package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "tenantbot/internal/app"
	"tenantbot/internal/bootstrap"
	"tenantbot/internal/cache"
	"tenantbot/internal/platform/rabbitmq"
	"tenantbot/internal/repository"
	"tenantbot/internal/transport/http/handler"
	"tenantbot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	botRepo := repository.NewBotRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	fragRepo := repository.NewFragmentRepository(app.MySQL)
	secretRepo := repository.NewSecretRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)

	publisher := rabbitmq.NewTranscriptPublisher(app.MQConn, app.Config.RabbitMQ.TranscriptQueue)
	transcriptCache := cache.NewTranscriptCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	documentService := appsvc.NewDocumentService(docRepo, botRepo, app.Blob)
	ingestService := appsvc.NewIngestService(docRepo, fragRepo, secretRepo, app.Blob, app.Provider, app.Config.Ingest)
	chatService := appsvc.NewChatService(
		botRepo, secretRepo, fragRepo, messageRepo,
		app.Provider, publisher, transcriptCache, app.Config.Chat,
	)
	settingsService := appsvc.NewSettingsService(secretRepo)

	kbHandler := handler.NewKBHandler(documentService, ingestService)
	chatHandler := handler.NewChatHandler(chatService)
	settingsHandler := handler.NewSettingsHandler(settingsService)

	v1 := router.Group("/api/v1")

	// Public widget surface: no auth, the bot resolves its workspace.
	v1.POST("/widget/chat", chatHandler.WidgetChat)

	authed := v1.Group("")
	authed.Use(middleware.AuthTenant(app.Config.Auth.JWTSecret))

	kb := authed.Group("/kb")
	kb.POST("/documents", kbHandler.Upload)
	kb.GET("/documents", kbHandler.List)
	kb.DELETE("/documents/:id", kbHandler.Delete)
	kb.POST("/documents/:id/process", kbHandler.Process)
	kb.POST("/documents/:id/reembed", kbHandler.Reembed)

	chat := authed.Group("/chat")
	chat.POST("/messages", chatHandler.DashboardChat)
	chat.GET("/history", chatHandler.History)

	settings := authed.Group("/settings")
	settings.PUT("/credential", settingsHandler.SetCredential)
	settings.GET("/credential", settingsHandler.GetCredential)
	settings.DELETE("/credential", settingsHandler.DeleteCredential)

	return router
}
