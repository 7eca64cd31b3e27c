package constants

// Table names - every MarketGate table carries the mg_ prefix so admin
// analytics can allowlist them as a group.
const (
	TablePrefix = "mg_"

	TableUser        = "mg_user"
	TableSession     = "mg_session"
	TableFlow        = "mg_flow"
	TableAnswer      = "mg_answer"
	TableProgress    = "mg_progress"
	TableToolProfile = "mg_tool_profile"
)

// Common field names
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldRole             = "role"
	FieldMessage          = "message"
	FieldIsRevoked        = "is_revoked"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
)

// Response envelope keys
const (
	ResponseError = "error"
	ResponseData  = "data"
)

// HTTP headers and context keys
const (
	HeaderAuthorization = "Authorization"
	ContextKeyUser      = "user"
)

// Roles. Admin is the only role with console access; the other three map
// one-to-one onto the flows they are allowed to run.
const (
	RoleSeller = "seller"
	RoleBuyer  = "buyer"
	RoleAlly   = "ally"
	RoleAdmin  = "admin"
)

// IsAdminRole reports whether the role grants console access.
func IsAdminRole(role string) bool {
	return role == RoleAdmin
}

// ValidRoles lists every role a user may hold.
func ValidRoles() []string {
	return []string{RoleSeller, RoleBuyer, RoleAlly, RoleAdmin}
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleSeller, RoleBuyer, RoleAlly, RoleAdmin:
		return true
	}
	return false
}
