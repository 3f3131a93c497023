package router

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/route"
)

// Target is a structured navigation target.
type Target struct {
	// Path is a path with optional query and fragment. Ignored when Name is set.
	Path string

	// Name selects a route by name.
	Name string

	// Query is added to the query of Path.
	Query map[string][]string

	// Hash overrides the fragment of Path.
	Hash string

	// Replace commits by replacing the current history entry.
	Replace bool

	// State is stored with the history entry.
	State map[string]any
}

// Push navigates to a path, adding a history entry.
func (r *Router) Push(ctx context.Context, to string) error {
	return r.Navigate(ctx, Target{Path: to})
}

// Replace navigates to a path, replacing the current history entry.
func (r *Router) Replace(ctx context.Context, to string) error {
	return r.Navigate(ctx, Target{Path: to, Replace: true})
}

// PushAsync starts a push and returns a channel that receives its result once
// the afterEach hooks have run.
func (r *Router) PushAsync(ctx context.Context, to string) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- r.Push(ctx, to)
	}()
	return done
}

// Navigate resolves t, runs the guard pipeline and commits the result. It
// returns a *navigation.Failure when a guard stopped the navigation.
func (r *Router) Navigate(ctx context.Context, t Target) error {
	return r.navigate(ctx, t, 0)
}

func (r *Router) navigate(ctx context.Context, t Target, redirects int) error {
	start := time.Now()
	seq := r.seq.Inc()

	to, err := r.ResolveTarget(t)
	if err != nil {
		r.metrics.navigation(resultError, start)
		return err
	}
	if leaf := to.Leaf(); leaf != nil && leaf.Redirect != "" {
		r.logger.Debug("route redirect", "seq", seq, "from", to.FullPath, "to", leaf.Redirect)
		return r.redirect(ctx, t, leaf.Redirect, redirects, start)
	}

	from := r.current.Get()
	ctx, span := r.tracer.Start(ctx, "waypoint.navigate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("waypoint.to", to.FullPath),
			attribute.String("waypoint.from", from.FullPath),
			attribute.Bool("waypoint.replace", t.Replace),
			attribute.Int("waypoint.redirects", redirects),
		),
	)
	defer span.End()

	r.logger.Debug("navigation started", "seq", seq, "to", to.FullPath, "from", from.FullPath)

	if err := r.pipeline.Run(ctx, to, from); err != nil {
		if rd, ok := navigation.AsRedirect(err); ok {
			span.AddEvent("redirect", trace.WithAttributes(attribute.String("waypoint.redirect", rd.To)))
			return r.redirect(ctx, t, rd.To, redirects, start)
		}
		r.metrics.navigation(failureResult(err), start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("navigation failed", "seq", seq, "to", to.FullPath, "error", err)
		return err
	}

	if err := r.commit(to, from, t.Replace, t.State); err != nil {
		r.metrics.navigation(resultError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("navigation commit failed", "seq", seq, "to", to.FullPath, "error", err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	r.metrics.navigation(resultSuccess, start)
	r.logger.Info("navigated", "seq", seq, "to", to.FullPath, "from", from.FullPath, "route", to.Name())
	r.notify(to, from)
	return nil
}

func (r *Router) redirect(ctx context.Context, t Target, to string, redirects int, start time.Time) error {
	r.metrics.navigation(resultRedirected, start)
	if redirects >= r.maxRedirects {
		return errors.New("W204").WithDetailf("more than %d redirects, last target %s", r.maxRedirects, to)
	}
	return r.navigate(ctx, Target{Path: to, Replace: t.Replace, State: t.State}, redirects+1)
}

func failureResult(err error) string {
	switch {
	case errors.Is(err, navigation.ErrRejected):
		return resultRejected
	case errors.Is(err, navigation.ErrAborted):
		return resultAborted
	case errors.Is(err, navigation.ErrCancelled):
		return resultCancelled
	default:
		return resultError
	}
}

// commit writes to to the history adapter and the current location. The
// first commit always replaces.
func (r *Router) commit(to, from *route.Location, replace bool, state map[string]any) error {
	var err error
	if from == route.StartLocation || replace {
		err = r.history.Replace(to.FullPath, state)
	} else {
		err = r.history.Push(to.FullPath, state)
	}
	if err != nil {
		return err
	}

	r.current.Set(to)
	r.ready.Store(true)
	r.armListener()
	return nil
}

// armListener registers the popstate bridge on the first commit.
func (r *Router) armListener() {
	if !r.listening.CompareAndSwap(false, true) {
		return
	}
	remove := r.history.Listen(r.onPopState)
	r.mu.Lock()
	r.removeListener = remove
	r.mu.Unlock()
}

func (r *Router) notify(to, from *route.Location) {
	for _, h := range r.afterHooks() {
		h(to, from)
	}
}

// onPopState runs a platform-driven move through the guards. The platform
// has already moved, so a successful run only updates the current location
// and a failed one moves the platform back.
func (r *Router) onPopState(toPath, fromPath string, info history.NavigationInfo) {
	start := time.Now()
	seq := r.seq.Inc()
	to := r.Resolve(toPath)
	from := r.current.Get()

	ctx, span := r.tracer.Start(context.Background(), "waypoint.popstate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("waypoint.to", to.FullPath),
			attribute.String("waypoint.from", from.FullPath),
			attribute.Int("waypoint.delta", info.Delta),
		),
	)
	defer span.End()

	if leaf := to.Leaf(); leaf != nil && leaf.Redirect != "" {
		r.logger.Debug("route redirect", "seq", seq, "from", to.FullPath, "to", leaf.Redirect)
		span.AddEvent("redirect", trace.WithAttributes(attribute.String("waypoint.redirect", leaf.Redirect)))
		r.metrics.navigation(resultRedirected, start)
		r.popRedirect(ctx, seq, info, leaf.Redirect)
		return
	}

	if err := r.pipeline.Run(ctx, to, from); err != nil {
		if rd, ok := navigation.AsRedirect(err); ok {
			r.metrics.navigation(resultRedirected, start)
			r.popRedirect(ctx, seq, info, rd.To)
			return
		}
		if info.Delta != 0 {
			r.history.Go(-info.Delta, false)
		}
		r.metrics.navigation(failureResult(err), start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("popstate navigation reverted", "seq", seq, "to", toPath, "from", fromPath, "error", err)
		return
	}

	r.current.Set(to)
	span.SetStatus(codes.Ok, "")
	r.metrics.navigation(resultSuccess, start)
	r.logger.Info("navigated", "seq", seq, "to", to.FullPath, "from", from.FullPath, "back", info.IsBack)
	r.notify(to, from)
}

// popRedirect sends a platform-driven move elsewhere. A move with a known
// delta is undone first and the target pushed; an entry without position
// is replaced by the target.
func (r *Router) popRedirect(ctx context.Context, seq uint64, info history.NavigationInfo, to string) {
	target := Target{Path: to}
	if info.Delta != 0 {
		r.history.Go(-info.Delta, false)
	} else {
		target.Replace = true
	}
	if err := r.Navigate(ctx, target); err != nil {
		r.logger.Warn("popstate redirect failed", "seq", seq, "to", to, "error", err)
	}
}
