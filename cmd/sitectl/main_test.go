package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	navFile, contentFile, asJSON = "", "", false
	t.Cleanup(func() { navFile, contentFile, asJSON = "", "", false })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateEmbeddedTables(t *testing.T) {
	out, err := runCLI(t, "validate")
	require.NoError(t, err)
	require.Contains(t, out, "unlinked         /privacy")
	require.NotContains(t, out, "missing content")

	_, err = runCLI(t, "validate", "--strict-unlinked")
	require.ErrorIs(t, err, errInvalid)
}

func TestValidateReportsMissingContent(t *testing.T) {
	dir := t.TempDir()
	navPath := filepath.Join(dir, "navigation.yaml")
	require.NoError(t, os.WriteFile(navPath, []byte(`
- id: home
  label: Home
  path: /
  children:
    - id: ghost
      label: Ghost Page
      path: /ghost
`), 0o600))

	out, err := runCLI(t, "validate", "--nav", navPath, "--json")
	require.ErrorIs(t, err, errInvalid)

	var rep struct {
		OK             bool     `json:"ok"`
		MissingContent []string `json:"missing_content"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.False(t, rep.OK)
	require.Equal(t, []string{"/ghost"}, rep.MissingContent)
}

func TestSearchCommand(t *testing.T) {
	out, err := runCLI(t, "search", "plan")
	require.NoError(t, err)
	require.Contains(t, out, "/business-plans")
	require.Contains(t, out, "Home / Advisory")

	out, err = runCLI(t, "search", "zzzz")
	require.NoError(t, err)
	require.Equal(t, "no matches for \"zzzz\"\n", out)

	out, err = runCLI(t, "search")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Advisory\n"), out)
}

func TestCrumbsCommand(t *testing.T) {
	out, err := runCLI(t, "crumbs", "/business-plans")
	require.NoError(t, err)
	require.Equal(t, "Home > (Advisory) > Business Plans\n", out)

	out, err = runCLI(t, "crumbs", "/nowhere")
	require.NoError(t, err)
	require.Contains(t, out, "not in the navigation tree")
}
