package navigation

import (
	"context"
	"sort"

	"github.com/vango-dev/waypoint/pkg/route"
)

// LeaveGuard is implemented by components that can veto leaving their route.
type LeaveGuard interface {
	BeforeRouteLeave(ctx context.Context, to, from *route.Location) error
}

// UpdateGuard is implemented by components that stay mounted while the
// location changes around them.
type UpdateGuard interface {
	BeforeRouteUpdate(ctx context.Context, to, from *route.Location) error
}

// EnterGuard is implemented by components that can veto entering their route.
type EnterGuard interface {
	BeforeRouteEnter(ctx context.Context, to, from *route.Location) error
}

// views returns rec's components, default view first and the rest by name.
func views(rec *route.Record) []any {
	names := make([]string, 0, len(rec.Components))
	for name := range rec.Components {
		if name != route.DefaultView {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]any, 0, len(rec.Components))
	if c := rec.Components[route.DefaultView]; c != nil {
		out = append(out, c)
	}
	for _, name := range names {
		if c := rec.Components[name]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// componentGuards extracts the guards of phase from the components of records,
// visiting records in the given order.
func componentGuards(records []*route.Record, phase Phase) []route.Guard {
	var guards []route.Guard
	for _, rec := range records {
		for _, c := range views(rec) {
			switch phase {
			case PhaseLeave:
				if g, ok := c.(LeaveGuard); ok {
					guards = append(guards, g.BeforeRouteLeave)
				}
			case PhaseUpdate:
				if g, ok := c.(UpdateGuard); ok {
					guards = append(guards, g.BeforeRouteUpdate)
				}
			case PhaseEnter:
				if g, ok := c.(EnterGuard); ok {
					guards = append(guards, g.BeforeRouteEnter)
				}
			}
		}
	}
	return guards
}

func reversed(records []*route.Record) []*route.Record {
	out := make([]*route.Record, len(records))
	for i, rec := range records {
		out[len(records)-1-i] = rec
	}
	return out
}

// recordGuards returns the BeforeEnter guards of records, root first.
func recordGuards(records []*route.Record) []route.Guard {
	var guards []route.Guard
	for _, rec := range records {
		guards = append(guards, rec.BeforeEnter...)
	}
	return guards
}
