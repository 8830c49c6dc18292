package models

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// StaffUser is an operator allowed to post transactions against the ledger.
type StaffUser struct {
	Username     string `json:"username"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

// ValidRole reports whether role is one the service understands.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleCashier
}
