// Package auth implements the demo sign-in backed by a fixed credential
// table. Nothing leaves the process and tokens never expire.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"

	"northgate.capital/web/internal/session"
)

// Role separates the two portals.
type Role string

const (
	RoleClient   Role = "client"
	RoleInvestor Role = "investor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleClient || r == RoleInvestor }

// ErrInvalidCredentials is returned for any unknown email or wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

type credential struct {
	password string
	role     Role
}

var demoAccounts = map[string]credential{
	"client@northgate.capital":   {password: "ledger-demo", role: RoleClient},
	"investor@northgate.capital": {password: "allocator-demo", role: RoleInvestor},
}

// Identity is the signed-in visitor.
type Identity struct {
	Token string
	Role  Role
}

// Authenticate checks the credential table without touching any store.
func Authenticate(email, password string) (Role, error) {
	acct, ok := demoAccounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(acct.password), []byte(password)) != 1 {
		return "", ErrInvalidCredentials
	}
	return acct.role, nil
}

// Login authenticates and writes a mock token and the role to store.
func Login(store session.Store, email, password string) (Identity, error) {
	role, err := Authenticate(email, password)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{Token: "mock_" + ulid.Make().String(), Role: role}
	store.Set(session.KeyAuthToken, id.Token)
	store.Set(session.KeyAuthRole, string(id.Role))
	return id, nil
}

// Logout removes the auth keys and leaves the rest of the store alone.
func Logout(store session.Store) {
	store.Clear(session.KeyAuthToken, session.KeyAuthRole)
}

// Current reads the identity back from store.
func Current(store session.Store) (Identity, bool) {
	token, ok := store.Get(session.KeyAuthToken)
	if !ok || token == "" {
		return Identity{}, false
	}
	role, _ := store.Get(session.KeyAuthRole)
	if !Role(role).Valid() {
		return Identity{}, false
	}
	return Identity{Token: token, Role: Role(role)}, true
}

// PortalPath returns the landing page for role.
func PortalPath(role Role) string {
	return "/portal/" + string(role)
}
