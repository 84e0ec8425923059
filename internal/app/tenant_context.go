package app

const (
	RoleSuperAdmin  = "super_admin"
	RoleClientAdmin = "client_admin"
	RoleTeamMember  = "team_member"
)

// TenantContext identifies the workspace a request acts on. It is
// resolved once at the edge (token claims plus optional super-admin
// impersonation) and passed explicitly into every operation, so
// tenant isolation is visible in signatures rather than hidden in
// ambient state.
type TenantContext struct {
	TenantID string
	Role     string
}
