// Command sitectl inspects the navigation tree and content map the web
// server loads: consistency checks, search and breadcrumb previews.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"northgate.capital/web/internal/nav"
	"northgate.capital/web/internal/sitedata"
)

var (
	navFile     string
	contentFile string
	asJSON      bool
)

// errInvalid marks a failed consistency check so main exits non-zero without
// printing the error twice.
var errInvalid = errors.New("site tables are inconsistent")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "sitectl:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Inspect the Northgate navigation tree and content map",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&navFile, "nav", "", "navigation YAML (default: embedded copy)")
	root.PersistentFlags().StringVar(&contentFile, "content", "", "content map YAML (default: embedded copy)")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(newValidateCmd(), newSearchCmd(), newCrumbsCmd(), newTreeCmd())
	return root
}

func loadTables() (*sitedata.Tables, error) {
	return sitedata.Load(navFile, contentFile)
}

func newValidateCmd() *cobra.Command {
	var strictUnlinked bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every navigation path has content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}
			rep := tables.Validate()
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, map[string]any{
					"ok":              rep.OK(),
					"missing_content": nonNil(rep.MissingContent),
					"unlinked":        nonNil(rep.Unlinked),
				}); err != nil {
					return err
				}
			} else {
				for _, p := range rep.MissingContent {
					fmt.Fprintf(out, "missing content  %s\n", p)
				}
				for _, p := range rep.Unlinked {
					fmt.Fprintf(out, "unlinked         %s\n", p)
				}
				if rep.OK() && len(rep.Unlinked) == 0 {
					fmt.Fprintln(out, "ok")
				}
			}
			if !rep.OK() || (strictUnlinked && len(rep.Unlinked) > 0) {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strictUnlinked, "strict-unlinked", false, "also fail when content is not linked from navigation")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Run the site search against the navigation tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			res := tables.Index.Search(q)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			if res.Browse {
				for _, g := range tables.Index.Browse() {
					fmt.Fprintln(out, g.Label)
					for _, e := range g.Entries {
						fmt.Fprintf(out, "  %-28s %s\n", e.Label, e.Path)
					}
				}
				return nil
			}
			if len(res.Matches) == 0 {
				fmt.Fprintf(out, "no matches for %q\n", res.Query)
				return nil
			}
			for _, e := range res.Matches {
				fmt.Fprintf(out, "%-28s %-36s %s\n", e.Label, e.Path, strings.Join(e.Trail, " / "))
			}
			return nil
		},
	}
}

func newCrumbsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crumbs <path>",
		Short: "Print the breadcrumb trail for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}
			crumbs := nav.Breadcrumbs(tables.Tree, args[0])
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, nonNil(crumbs))
			}
			if len(crumbs) == 0 {
				fmt.Fprintf(out, "%s is not in the navigation tree\n", args[0])
				return nil
			}
			labels := make([]string, len(crumbs))
			for i, c := range crumbs {
				labels[i] = c.Label
				if c.Path == nav.GroupPath {
					labels[i] = "(" + c.Label + ")"
				}
			}
			fmt.Fprintln(out, strings.Join(labels, " > "))
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the navigation tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tables.Tree.Walk(func(n *nav.Node, depth int) {
				fmt.Fprintf(out, "%s%-*s %s\n", strings.Repeat("  ", depth), 30-2*depth, n.Label, n.Path)
			})
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
