package models

// UserRole mirrors the role column of the users sheet.
type UserRole string

const (
	RoleAdmin UserRole = "Admin"
	RoleUser  UserRole = "User"
)

// UserInfo describes the authenticated user in responses. The sheet backend
// owns the user records; the gateway only relays what login returns.
type UserInfo struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// IsAdmin reports whether the user may perform mutating operations.
func (u UserInfo) IsAdmin() bool {
	return u.Role == RoleAdmin
}
