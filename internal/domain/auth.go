package domain

// Identity is the authenticated caller handed to every service operation.
// UserID is empty when the identity provider vouched for an email that has no user row yet.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   UserRole
}

// Authenticated reports whether the identity carries enough to act on behalf of someone.
func (i *Identity) Authenticated() bool {
	return i != nil && (i.UserID != "" || i.Email != "")
}

// IsAdmin reports whether the identity holds the ADMIN role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == UserRoleAdmin
}
