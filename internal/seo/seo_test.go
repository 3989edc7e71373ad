package seo

import (
	"strings"
	"testing"

	"northgate.capital/web/internal/nav"
)

func TestCanonical(t *testing.T) {
	cases := map[string][2]string{
		"https://northgate.capital/valuation": {"https://northgate.capital/", "/valuation"},
		"https://northgate.capital/":          {"https://northgate.capital", ""},
		"http://localhost:8080/about":         {"http://localhost:8080", "about"},
	}
	for want, in := range cases {
		if got := Canonical(in[0], in[1]); got != want {
			t.Fatalf("Canonical(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title("Valuation", "Northgate Capital"); got != "Valuation | Northgate Capital" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := Title("", "Northgate Capital"); got != "Northgate Capital" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestBreadcrumbListSkipsGroups(t *testing.T) {
	crumbs := []nav.Crumb{
		{Label: "Home", Path: "/"},
		{Label: "Advisory", Path: "#"},
		{Label: "Valuation", Path: "/valuation", Active: true},
	}
	items := BreadcrumbItems("https://northgate.capital", crumbs)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	out := JSON(BreadcrumbList(items))
	if !strings.Contains(out, `"position":2`) || !strings.Contains(out, `https://northgate.capital/valuation`) {
		t.Fatalf("unexpected JSON-LD %s", out)
	}
}
