// Package directory resolves sign-in emails to known users.
//
// The built-in directory is a fixed list; anything that can map an email to a
// store.User can stand in for it through the Resolver interface.
package directory

import (
	"strings"

	"github.com/sadopc/eod/internal/store"
)

// Resolver maps an email address to a user.
type Resolver interface {
	Resolve(email string) (store.User, bool)
	Users() []store.User
}

// Static is an in-memory directory.
type Static struct {
	users []store.User
}

// Default returns the directory shipped with the app.
func Default() *Static {
	return NewStatic([]store.User{
		{Email: "manager@estoarkis.com", Name: "Admin Manager", Role: store.RoleManager},
		{Email: "john.doe@estoarkis.com", Name: "John Doe", Role: store.RoleTelecaller},
		{Email: "jane.smith@estoarkis.com", Name: "Jane Smith", Role: store.RoleTelecaller},
	})
}

func NewStatic(users []store.User) *Static {
	cp := make([]store.User, len(users))
	copy(cp, users)
	return &Static{users: cp}
}

// Resolve does a case-insensitive exact match on the email.
func (d *Static) Resolve(email string) (store.User, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return store.User{}, false
	}
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return store.User{}, false
}

func (d *Static) Users() []store.User {
	cp := make([]store.User, len(d.users))
	copy(cp, d.users)
	return cp
}
