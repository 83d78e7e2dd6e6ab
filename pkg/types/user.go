package types

import "time"

// UserRole represents the roles a login account may hold
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Account represents a login account. Password holds either a bcrypt hash or,
// for records carried over from older backups, the plain text value.
type Account struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// AccountView is an account without its password, as returned by the API
type AccountView struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// View strips the password
func (a Account) View() AccountView {
	return AccountView{ID: a.ID, Username: a.Username, Name: a.Name, Role: a.Role}
}

// AccountInput carries the fields needed to add an account
type AccountInput struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// UserClaims represents JWT token claims
type UserClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// Credentials represents user login credentials
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthToken represents an issued access token
type AuthToken struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	User        AccountView `json:"user"`
}
