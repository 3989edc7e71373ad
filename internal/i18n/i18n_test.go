package i18n

import "testing"

func TestResolveHonorsQValues(t *testing.T) {
	b, err := Load("../../locales", "en", []string{"en", "es"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.Resolve("en;q=0.8, es;q=0.9"); got != "es" {
		t.Fatalf("expected es, got %s", got)
	}
	if got := b.Resolve("fr-FR, es-MX;q=0"); got != "en" {
		t.Fatalf("expected fallback en, got %s", got)
	}
}

func TestTranslateFallsBack(t *testing.T) {
	b, err := Load("../../locales", "en", []string{"en", "es", "de"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.Supports("de") {
		t.Fatalf("missing locale files must not be reported as supported")
	}
	if got := b.T("de", "search.placeholder"); got != b.T("en", "search.placeholder") {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := b.T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
}

func TestResolveMatchesRegionalVariants(t *testing.T) {
	b, err := Load("../../locales", "en", []string{"en", "es"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := map[string]string{
		"es-MX,es;q=0.9,en;q=0.5": "es",
		"en-GB":                   "en",
		"":                        "en",
		"not a header;;":          "en",
	}
	for header, want := range cases {
		if got := b.Resolve(header); got != want {
			t.Errorf("Resolve(%q) = %s, want %s", header, got, want)
		}
	}
}
