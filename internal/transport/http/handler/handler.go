package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenantbot/internal/app"
	"tenantbot/internal/transport/http/middleware"
	"tenantbot/internal/transport/http/response"
)

func tenantContextFrom(c *gin.Context) (app.TenantContext, bool) {
	tenantID, ok := c.Get(middleware.ContextTenantIDKey)
	if !ok {
		return app.TenantContext{}, false
	}
	role, _ := c.Get(middleware.ContextRoleKey)
	tid, _ := tenantID.(string)
	r, _ := role.(string)
	if tid == "" {
		return app.TenantContext{}, false
	}
	return app.TenantContext{TenantID: tid, Role: r}, true
}

// writeAppError maps the core error taxonomy onto HTTP. Messages are
// already worded for the calling audience and pass through verbatim.
func writeAppError(c *gin.Context, err error) {
	var appErr *app.Error
	if !errors.As(err, &appErr) {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
		return
	}
	switch appErr.Kind {
	case app.KindNotFound:
		response.Error(c, http.StatusNotFound, response.CodeNotFound, appErr.Message)
	case app.KindInvalidInput:
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, appErr.Message)
	case app.KindMissingCredential:
		response.Error(c, http.StatusBadRequest, response.CodeMissingAPIKey, appErr.Message)
	case app.KindInvalidCredential:
		response.Error(c, http.StatusBadRequest, response.CodeInvalidAPIKey, appErr.Message)
	case app.KindRateLimited:
		response.Error(c, http.StatusTooManyRequests, response.CodeProviderExhausted, appErr.Message)
	case app.KindProvider:
		response.Error(c, http.StatusBadGateway, response.CodeProviderError, appErr.Message)
	case app.KindTooManyFragments:
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooManyFragments, appErr.Message)
	case app.KindEmptyContent:
		response.Error(c, http.StatusUnprocessableEntity, response.CodeEmptyContent, appErr.Message)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, appErr.Message)
	}
}
