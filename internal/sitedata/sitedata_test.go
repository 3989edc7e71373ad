package sitedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"northgate.capital/web/internal/nav"
)

func TestEmbeddedTablesAreConsistent(t *testing.T) {
	tables, err := Load("", "")
	require.NoError(t, err)

	rep := tables.Validate()
	require.Empty(t, rep.MissingContent, "every navigable path needs content or a route")
	require.Equal(t, []string{"/privacy"}, rep.Unlinked)
}

func TestToolPagesHaveContent(t *testing.T) {
	tables := MustLoadEmbedded()
	for _, p := range []string{"/business-plans", "/valuation", "/real-estate/underwriting", "/investor-readiness", "/market-intelligence"} {
		e, ok := tables.Content.Lookup(p)
		require.True(t, ok, p)
		require.NotEmpty(t, e.Title, p)
		require.NotEmpty(t, e.Steps(), p)
	}
}

func TestBusinessPlansBreadcrumbs(t *testing.T) {
	tables := MustLoadEmbedded()
	got := nav.Breadcrumbs(tables.Tree, "/business-plans")
	want := []nav.Crumb{
		{Label: "Home", Path: "/"},
		{Label: "Advisory", Path: "#"},
		{Label: "Business Plans", Path: "/business-plans", Active: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("breadcrumbs mismatch (-want +got):\n%s", diff)
	}
}

func TestFileOverride(t *testing.T) {
	dir := t.TempDir()
	navPath := filepath.Join(dir, "nav.yaml")
	require.NoError(t, os.WriteFile(navPath, []byte("- id: home\n  label: Home\n  path: /\n  children:\n    - id: about\n      label: About\n      path: /about\n"), 0o600))

	tables, err := Load(navPath, "")
	require.NoError(t, err)
	require.Len(t, tables.Index.Entries(), 2)

	_, err = Load(filepath.Join(dir, "missing.yaml"), "")
	require.Error(t, err)
}
