package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

// stepKind is a simulation action.
type stepKind string

const (
	stepPush    stepKind = "push"
	stepReplace stepKind = "replace"
	stepBack    stepKind = "back"
	stepForward stepKind = "forward"
	stepGo      stepKind = "go"
)

type step struct {
	kind  stepKind
	path  string
	delta int
}

func (s step) String() string {
	switch s.kind {
	case stepPush, stepReplace:
		return string(s.kind) + ":" + s.path
	case stepGo:
		return "go:" + strconv.Itoa(s.delta)
	default:
		return string(s.kind)
	}
}

// parseStep parses push:/p, replace:/p, back, forward and go:N.
func parseStep(raw string) (step, error) {
	kind, arg, hasArg := strings.Cut(raw, ":")
	switch stepKind(kind) {
	case stepPush, stepReplace:
		if !hasArg || !strings.HasPrefix(arg, "/") {
			return step{}, errors.New("W410").WithDetailf("%q needs an absolute path, e.g. %s:/users", raw, kind)
		}
		return step{kind: stepKind(kind), path: arg}, nil
	case stepBack, stepForward:
		if hasArg {
			return step{}, errors.New("W410").WithDetailf("%q takes no argument", raw)
		}
		return step{kind: stepKind(kind)}, nil
	case stepGo:
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil || n == 0 {
			return step{}, errors.New("W410").WithDetailf("%q needs a non-zero delta, e.g. go:-2", raw)
		}
		return step{kind: stepGo, delta: n}, nil
	default:
		return step{}, errors.New("W410").WithDetailf("unknown step %q", raw)
	}
}

func simulateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <step>...",
		Short: "Run navigations against an in-memory history",
		Long: `Start a router on an in-memory history and apply each step in order,
printing the current route and the history stack after each one.

Steps:
  push:/path     navigate, adding an entry
  replace:/path  navigate, replacing the current entry
  back           move one entry back
  forward        move one entry forward
  go:N           move N entries

Examples:
  waypoint simulate push:/users push:/settings back
  waypoint simulate replace:/login go:-1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := make([]step, len(args))
			for i, raw := range args {
				s, err := parseStep(raw)
				if err != nil {
					return err
				}
				steps[i] = s
			}

			e, err := setup(flags)
			if err != nil {
				return err
			}
			r, platform, _, err := e.memoryRouter(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Print(renderState("start", r, platform))

			for _, s := range steps {
				if err := apply(cmd.Context(), r, s); err != nil {
					warn("%s: %v", s, err)
				}
				fmt.Print(renderState(s.String(), r, platform))
			}
			return nil
		},
	}

	return cmd
}

func apply(ctx context.Context, r *router.Router, s step) error {
	switch s.kind {
	case stepPush:
		return r.Push(ctx, s.path)
	case stepReplace:
		return r.Replace(ctx, s.path)
	case stepBack:
		r.Back()
	case stepForward:
		r.Forward()
	case stepGo:
		r.Go(s.delta)
	}
	return nil
}

// renderState prints the current route and the platform stack, marking the
// active entry.
func renderState(title string, r *router.Router, platform *history.MemoryPlatform) string {
	var b strings.Builder
	cur := r.CurrentRoute().Get()

	fmt.Fprintf(&b, "%s\n", pathStyle.Render(title))
	route := cur.FullPath
	if cur.Name() != "" {
		route += " (" + nameStyle.Render(cur.Name()) + ")"
	}
	if !cur.Found() {
		route += " " + dimStyle.Render("unmatched")
	}
	fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("current"), route)

	entries := platform.Entries()
	index := platform.Index()
	urls := make([]string, len(entries))
	for i, entry := range entries {
		u := entry.Location.String()
		if i == index {
			u = successStyle.Render("[" + u + "]")
		} else {
			u = dimStyle.Render(u)
		}
		urls[i] = u
	}
	fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("history"), strings.Join(urls, " "))

	if st, err := history.DecodeState(entries[index].State); err == nil {
		fmt.Fprintf(&b, "  %s%s\n", labelStyle.Render("state"), dimStyle.Render(fmt.Sprintf(
			"back=%q forward=%q position=%d replace=%t", st.Back, st.Forward, st.Position, st.Replace)))
	}
	return b.String()
}
