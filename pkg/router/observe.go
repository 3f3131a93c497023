package router

import (
	"context"
	stderrors "errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/pkg/navigation"
)

// observer turns pipeline progress into span events, logs and metrics.
type observer struct {
	r *Router
}

func (o *observer) PhaseStarted(ctx context.Context, phase navigation.Phase, guards int) {
	trace.SpanFromContext(ctx).AddEvent(phase.String(), trace.WithAttributes(
		attribute.Int("waypoint.guards", guards),
	))
	if guards > 0 {
		o.r.logger.Debug("guard phase", "phase", phase.String(), "guards", guards)
	}
}

func (o *observer) GuardRejected(ctx context.Context, phase navigation.Phase, err error) {
	var f *navigation.Failure
	if stderrors.As(err, &f) && f.Kind == navigation.Redirected {
		return
	}
	o.r.metrics.rejection(phase.String())
}
