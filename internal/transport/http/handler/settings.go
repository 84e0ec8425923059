package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tenantbot/internal/app"
	"tenantbot/internal/transport/http/response"
)

type SettingsHandler struct {
	settings *app.SettingsService
}

type setCredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

func NewSettingsHandler(settings *app.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// SetCredential saves the workspace's provider key. The response only
// ever carries the masked form.
func (h *SettingsHandler) SetCredential(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req setCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	masked, err := h.settings.SetCredential(tc, req.APIKey)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, gin.H{"api_key_masked": masked})
}

func (h *SettingsHandler) GetCredential(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	masked, saved, err := h.settings.Credential(tc)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, gin.H{"saved": saved, "api_key_masked": masked})
}

func (h *SettingsHandler) DeleteCredential(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	if err := h.settings.DeleteCredential(tc); err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
