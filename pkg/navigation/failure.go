package navigation

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/route"
)

// FailureKind classifies why a navigation did not commit.
type FailureKind int

const (
	// Aborted means a guard returned route.ErrAbort.
	Aborted FailureKind = iota + 1

	// Redirected means a guard asked for another target.
	Redirected

	// Rejected means a guard returned any other error, or panicked.
	Rejected

	// Cancelled means the run's context ended.
	Cancelled
)

func (k FailureKind) String() string {
	switch k {
	case Aborted:
		return "aborted"
	case Redirected:
		return "redirected"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *Failure of the same kind.
var (
	ErrRejected  = errors.New("W201")
	ErrAborted   = errors.New("W202")
	ErrCancelled = errors.New("W203")
)

// Failure is the error returned by a pipeline run that did not complete.
type Failure struct {
	Kind  FailureKind
	Phase Phase
	To    *route.Location
	From  *route.Location

	// Err is the error the guard returned.
	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("navigation to %s %s in %s: %v", f.To.String(), f.Kind, f.Phase, f.Err)
}

// Unwrap returns the guard's error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches ErrRejected, ErrAborted and ErrCancelled by kind.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*errors.WaypointError)
	if !ok {
		return false
	}
	switch f.Kind {
	case Rejected:
		return t.Code == ErrRejected.Code
	case Aborted:
		return t.Code == ErrAborted.Code
	case Cancelled:
		return t.Code == ErrCancelled.Code
	}
	return false
}

// Coded returns the registered error describing the failure, or nil for a
// redirect.
func (f *Failure) Coded() *errors.WaypointError {
	var code string
	switch f.Kind {
	case Rejected:
		code = ErrRejected.Code
	case Aborted:
		code = ErrAborted.Code
	case Cancelled:
		code = ErrCancelled.Code
	default:
		return nil
	}
	return errors.New(code).
		WithDetailf("%s during %s", f.To.String(), f.Phase).
		Wrap(f.Err)
}

// AsRedirect reports whether err is a redirected failure and returns the
// redirect request.
func AsRedirect(err error) (*route.RedirectError, bool) {
	var f *Failure
	if !stderrors.As(err, &f) || f.Kind != Redirected {
		return nil, false
	}
	var r *route.RedirectError
	if !stderrors.As(f.Err, &r) {
		return nil, false
	}
	return r, true
}

// PanicError is the rejection recorded when a guard panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("guard panicked: %v", e.Value)
}

func classify(ctx context.Context, err error) FailureKind {
	var r *route.RedirectError
	switch {
	case stderrors.As(err, &r):
		return Redirected
	case stderrors.Is(err, route.ErrAbort):
		return Aborted
	case ctx.Err() != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
		return Cancelled
	default:
		return Rejected
	}
}
