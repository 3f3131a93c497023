package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/matcher"
	"github.com/vango-dev/waypoint/pkg/route"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route tree",
		Long: `Load the route table and print it.

Formats:
  tree  nested tree with names, views and meta (default)
  yaml  the normalized route table

Examples:
  waypoint routes
  waypoint routes --routes app/routes.yaml --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			table, err := e.loadTable(cmd.Context())
			if err != nil {
				return err
			}

			switch format {
			case "yaml":
				return table.Encode(os.Stdout)
			case "tree":
				m, err := matcher.New(table.Definitions())
				if err != nil {
					return err
				}
				fmt.Print(renderTree(m))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want tree or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tree", "Output format: tree or yaml")

	return cmd
}

// renderTree draws the matcher's tree, roots in registration order.
func renderTree(m *matcher.Matcher) string {
	var b strings.Builder
	roots := m.Roots()
	for i, id := range roots {
		writeNode(&b, m, id, "", i == len(roots)-1, true)
	}
	return b.String()
}

func writeNode(w io.Writer, m *matcher.Matcher, id matcher.NodeID, prefix string, last, root bool) {
	rec := m.Record(id)

	branch, childPrefix := "├── ", prefix+"│   "
	if last {
		branch, childPrefix = "└── ", prefix+"    "
	}
	if root {
		branch, childPrefix = "", ""
	}

	fmt.Fprintf(w, "%s%s%s\n", prefix, branch, describe(rec))

	children := m.Children(id)
	for i, child := range children {
		writeNode(w, m, child, childPrefix, i == len(children)-1, false)
	}
}

func describe(rec *route.Record) string {
	parts := []string{pathStyle.Render(rec.Path)}
	if rec.Name != "" {
		parts = append(parts, nameStyle.Render(rec.Name))
	}
	if views := viewList(rec); views != "" {
		parts = append(parts, "["+views+"]")
	}
	if rec.Redirect != "" {
		parts = append(parts, dimStyle.Render("→ "+rec.Redirect))
	}
	if len(rec.Meta) > 0 {
		parts = append(parts, dimStyle.Render(metaList(rec.Meta)))
	}
	return strings.Join(parts, "  ")
}

func viewList(rec *route.Record) string {
	views := make([]string, 0, len(rec.Components))
	for v := range rec.Components {
		views = append(views, v)
	}
	sort.Strings(views)

	out := make([]string, 0, len(views))
	for _, v := range views {
		name := fmt.Sprint(rec.Components[v])
		if v == route.DefaultView {
			out = append(out, name)
		} else {
			out = append(out, v+"="+name)
		}
	}
	return strings.Join(out, " ")
}

func metaList(meta map[string]any) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, meta[k])
	}
	return "{" + strings.Join(pairs, " ") + "}"
}
