package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tenantbot/internal/app"
	"tenantbot/internal/transport/http/response"
)

// ChatHandler serves both chat surfaces. The widget endpoint is
// public and resolves the workspace from the bot; the dashboard
// endpoints run under tenant auth.
type ChatHandler struct {
	chat *app.ChatService
}

type chatRequest struct {
	BotID        string `json:"bot_id" binding:"required"`
	SessionID    string `json:"session_id"`
	Message      string `json:"message" binding:"required"`
	UseKnowledge bool   `json:"use_knowledge"`
}

func NewChatHandler(chat *app.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// WidgetChat answers an embedded-widget visitor. Errors are worded
// for someone who does not own the workspace.
func (h *ChatHandler) WidgetChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.chat.Answer(c.Request.Context(), app.AnswerInput{
		BotID:        req.BotID,
		SessionID:    req.SessionID,
		Message:      req.Message,
		UseKnowledge: req.UseKnowledge,
		Audience:     app.AudienceEndUser,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, result)
}

// DashboardChat is the tenant's own test surface. The bot must belong
// to the authenticated workspace, and errors carry remediation text.
func (h *ChatHandler) DashboardChat(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.chat.Answer(c.Request.Context(), app.AnswerInput{
		BotID:        req.BotID,
		SessionID:    req.SessionID,
		Message:      req.Message,
		UseKnowledge: req.UseKnowledge,
		TenantID:     tc.TenantID,
		Audience:     app.AudienceTenant,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) History(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	botID := strings.TrimSpace(c.Query("bot_id"))
	sessionID := strings.TrimSpace(c.Query("session_id"))
	messages, err := h.chat.History(c.Request.Context(), tc, botID, sessionID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, messages)
}
