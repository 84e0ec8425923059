package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tenantbot/internal/app"
	"tenantbot/internal/transport/http/response"
)

const (
	ContextTenantIDKey = "tenant_id"
	ContextRoleKey     = "role"

	// ImpersonationHeader selects the target workspace for a
	// super-admin request. Other roles never read it.
	ImpersonationHeader = "X-Tenant-ID"
)

type tenantClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthTenant authenticates the dashboard surface and resolves the
// workspace the request acts on. Super admins carry no workspace of
// their own and must name one explicitly via the impersonation
// header; every other role is pinned to the tenant in its token.
func AuthTenant(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := parseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		tenantID := claims.TenantID
		switch claims.Role {
		case app.RoleSuperAdmin:
			tenantID = strings.TrimSpace(c.GetHeader(ImpersonationHeader))
			if tenantID == "" {
				response.Error(c, 400, response.CodeBadRequest, "super admin requests must set "+ImpersonationHeader)
				c.Abort()
				return
			}
		case app.RoleClientAdmin, app.RoleTeamMember:
			if tenantID == "" {
				response.Error(c, 401, response.CodeUnauthorized, "token carries no tenant")
				c.Abort()
				return
			}
		default:
			response.Error(c, 403, response.CodeForbidden, "unknown role")
			c.Abort()
			return
		}

		c.Set(ContextTenantIDKey, tenantID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

func parseToken(secret, token string) (*tenantClaims, error) {
	claims := &tenantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
