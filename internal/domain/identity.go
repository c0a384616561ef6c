// Package domain holds the caller identity and the error taxonomy shared by
// the stores, the services and the HTTP edge.
package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the resolved caller of an operation. The zero value is
// Anonymous: a valid identity that every protected operation must reject.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.UserID == 0
}

func (i Identity) IsAdmin() bool {
	return !i.IsAnonymous() && i.Role == RoleAdmin
}

// RequireUser rejects Anonymous.
func RequireUser(i Identity) error {
	if i.IsAnonymous() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin rejects Anonymous and non-admin identities.
func RequireAdmin(i Identity) error {
	if err := RequireUser(i); err != nil {
		return err
	}
	if !i.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
