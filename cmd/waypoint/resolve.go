package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/matcher"
	"github.com/vango-dev/waypoint/pkg/route"
)

func resolveCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve paths against the route table",
		Long: `Resolve one or more paths and print the matched chain, root first.

A path that matches no route is reported as an error.

Examples:
  waypoint resolve /users
  waypoint resolve "/users?page=2#top" /settings`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			table, err := e.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			m, err := matcher.New(table.Definitions())
			if err != nil {
				return err
			}

			var firstErr error
			for _, path := range args {
				loc, err := m.ResolveStrict(path)
				if err != nil {
					warn("%s: no route matches", path)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Print(renderLocation(loc))
			}
			return firstErr
		},
	}

	return cmd
}

// renderLocation prints a resolved location and its matched chain.
func renderLocation(loc *route.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", successStyle.Render("✓"), pathStyle.Render(loc.FullPath))
	if loc.Name() != "" {
		fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("name"), nameStyle.Render(loc.Name()))
	}
	if len(loc.Query) > 0 {
		fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("query"), loc.Query.Encode())
	}
	if loc.Hash != "" {
		fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("hash"), loc.Hash)
	}
	fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("matched"), strings.Join(loc.Paths(), " → "))
	if meta := loc.MergedMeta(); len(meta) > 0 {
		fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("meta"), metaList(meta))
	}
	return b.String()
}
