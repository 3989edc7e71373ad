package auth

import (
	"errors"
	"strings"
	"testing"

	"northgate.capital/web/internal/session"
)

func TestLoginStoresTokenAndRole(t *testing.T) {
	store := session.NewMemory()
	id, err := Login(store, "  Investor@Northgate.Capital ", "allocator-demo")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id.Role != RoleInvestor {
		t.Fatalf("expected investor role, got %s", id.Role)
	}
	if !strings.HasPrefix(id.Token, "mock_") {
		t.Fatalf("unexpected token %q", id.Token)
	}
	got, ok := Current(store)
	if !ok || got != id {
		t.Fatalf("Current = %+v, %v; want %+v", got, ok, id)
	}
	if PortalPath(got.Role) != "/portal/investor" {
		t.Fatalf("unexpected portal path %s", PortalPath(got.Role))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := session.NewMemory()
	cases := []struct{ email, password string }{
		{"client@northgate.capital", "wrong"},
		{"nobody@northgate.capital", "ledger-demo"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := Login(store, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q) err = %v", tc.email, err)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("failed logins must not write to the store")
	}
}

func TestLogoutKeepsOtherKeys(t *testing.T) {
	store := session.NewMemory()
	store.Set(session.KeyExpandedNodes, `["root"]`)
	if _, err := Login(store, "client@northgate.capital", "ledger-demo"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	Logout(store)
	if _, ok := Current(store); ok {
		t.Fatalf("expected no identity after logout")
	}
	if _, ok := store.Get(session.KeyExpandedNodes); !ok {
		t.Fatalf("logout must keep navigation state")
	}
}

func TestCurrentRejectsUnknownRole(t *testing.T) {
	store := session.NewMemory()
	store.Set(session.KeyAuthToken, "mock_x")
	store.Set(session.KeyAuthRole, "admin")
	if _, ok := Current(store); ok {
		t.Fatalf("unknown roles must not authenticate")
	}
}
