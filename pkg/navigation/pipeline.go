package navigation

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/route"
)

// Phase identifies a guard phase.
type Phase int

const (
	PhaseLeave Phase = iota
	PhaseBeforeEach
	PhaseUpdate
	PhaseBeforeEnter
	PhaseEnter
	PhaseBeforeResolve
)

// Phases lists every phase in execution order.
var Phases = []Phase{
	PhaseLeave,
	PhaseBeforeEach,
	PhaseUpdate,
	PhaseBeforeEnter,
	PhaseEnter,
	PhaseBeforeResolve,
}

func (p Phase) String() string {
	switch p {
	case PhaseLeave:
		return "beforeRouteLeave"
	case PhaseBeforeEach:
		return "beforeEach"
	case PhaseUpdate:
		return "beforeRouteUpdate"
	case PhaseBeforeEnter:
		return "beforeEnter"
	case PhaseEnter:
		return "beforeRouteEnter"
	case PhaseBeforeResolve:
		return "beforeResolve"
	default:
		return "unknown"
	}
}

// Observer is notified as a run progresses. Implementations must not block.
type Observer interface {
	// PhaseStarted is called before the guards of phase run.
	PhaseStarted(ctx context.Context, phase Phase, guards int)

	// GuardRejected is called when a guard ends the run.
	GuardRejected(ctx context.Context, phase Phase, err error)
}

// Pipeline settles the guard phases of a navigation.
type Pipeline struct {
	// BeforeEach returns the global guards for the beforeEach phase.
	BeforeEach func() []route.Guard

	// BeforeResolve returns the global guards for the beforeResolve phase.
	BeforeResolve func() []route.Guard

	// Observer is optional.
	Observer Observer
}

// Run executes every phase for a navigation from from to to. It returns nil
// when all guards passed, or a *Failure describing the guard that stopped it.
//
// A context that is never cancelled lets a guard that never settles stall the
// run forever.
func (p *Pipeline) Run(ctx context.Context, to, from *route.Location) error {
	leaving, updating, entering := ExtractChangingRecords(to, from)

	phases := []struct {
		phase  Phase
		guards func() []route.Guard
	}{
		{PhaseLeave, func() []route.Guard { return componentGuards(reversed(leaving), PhaseLeave) }},
		{PhaseBeforeEach, p.globals(p.BeforeEach)},
		{PhaseUpdate, func() []route.Guard { return componentGuards(updating, PhaseUpdate) }},
		{PhaseBeforeEnter, func() []route.Guard { return recordGuards(matched(to)) }},
		{PhaseEnter, func() []route.Guard { return componentGuards(entering, PhaseEnter) }},
		{PhaseBeforeResolve, p.globals(p.BeforeResolve)},
	}

	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, ph.phase, to, from, err)
		}
		guards := ph.guards()
		if p.Observer != nil {
			p.Observer.PhaseStarted(ctx, ph.phase, len(guards))
		}
		if err := compose(ctx, guards, to, from); err != nil {
			return p.fail(ctx, ph.phase, to, from, err)
		}
	}
	return nil
}

func (p *Pipeline) globals(fn func() []route.Guard) func() []route.Guard {
	return func() []route.Guard {
		if fn == nil {
			return nil
		}
		return fn()
	}
}

func (p *Pipeline) fail(ctx context.Context, phase Phase, to, from *route.Location, err error) error {
	f := &Failure{
		Kind:  classify(ctx, err),
		Phase: phase,
		To:    to,
		From:  from,
		Err:   err,
	}
	if p.Observer != nil {
		p.Observer.GuardRejected(ctx, phase, f)
	}
	return f
}

// compose chains guards so each runs only after the previous one settled.
// The chain is built from end to start.
func compose(ctx context.Context, guards []route.Guard, to, from *route.Location) error {
	chain := func() error { return nil }

	for i := len(guards) - 1; i >= 0; i-- {
		g := guards[i]
		next := chain
		chain = func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := runGuard(ctx, g, to, from); err != nil {
				return err
			}
			return next()
		}
	}

	return chain()
}

func runGuard(ctx context.Context, g route.Guard, to, from *route.Location) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return g(ctx, to, from)
}
