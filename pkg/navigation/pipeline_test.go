package navigation

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/waypoint/pkg/route"
)

type recorder struct {
	log []string
}

func (r *recorder) add(s string) { r.log = append(r.log, s) }

func (r *recorder) guard(id string) route.Guard {
	return route.Sync(func(to, from *route.Location) error {
		r.add(id)
		return nil
	})
}

// logComponent implements every component guard and logs the ones called.
type logComponent struct {
	id        string
	rec       *recorder
	updateErr error
}

func (c *logComponent) BeforeRouteLeave(_ context.Context, _, _ *route.Location) error {
	c.rec.add(c.id + "-leave")
	return nil
}

func (c *logComponent) BeforeRouteUpdate(_ context.Context, _, _ *route.Location) error {
	c.rec.add(c.id + "-update")
	return c.updateErr
}

func (c *logComponent) BeforeRouteEnter(_ context.Context, _, _ *route.Location) error {
	c.rec.add(c.id + "-enter")
	return nil
}

func loc(records ...*route.Record) *route.Location {
	path := "/"
	if len(records) > 0 {
		path = records[len(records)-1].Path
	}
	return &route.Location{FullPath: path, Path: path, Matched: records}
}

// orderingFixture builds from = [U1, L1, L2] and to = [U1, E1, E2].
func orderingFixture(rec *recorder) (u1 *logComponent, to, from *route.Location) {
	u1 = &logComponent{id: "U1", rec: rec}
	uRec := route.Normalize(route.Definition{Path: "/", Component: u1}, "")
	l1 := route.Normalize(route.Definition{Path: "l1", Component: &logComponent{id: "L1", rec: rec}}, "/")
	l2 := route.Normalize(route.Definition{Path: "/l2", Component: &logComponent{id: "L2", rec: rec}}, "/l1")
	e1 := route.Normalize(route.Definition{
		Path:        "e1",
		Component:   &logComponent{id: "E1", rec: rec},
		BeforeEnter: []route.Guard{rec.guard("beforeEnter(1)")},
	}, "/")
	e2 := route.Normalize(route.Definition{
		Path:        "/e2",
		Component:   &logComponent{id: "E2", rec: rec},
		BeforeEnter: []route.Guard{rec.guard("beforeEnter(2)")},
	}, "/e1")

	return u1, loc(uRec, e1, e2), loc(uRec, l1, l2)
}

func TestExtractChangingRecords(t *testing.T) {
	root := route.Normalize(route.Definition{Path: "/"}, "")
	a := route.Normalize(route.Definition{Path: "a"}, "/")
	b := route.Normalize(route.Definition{Path: "b"}, "/")
	ab := route.Normalize(route.Definition{Path: "/x"}, "/a")

	paths := func(records []*route.Record) []string {
		out := []string{}
		for _, r := range records {
			out = append(out, r.Path)
		}
		return out
	}

	tests := []struct {
		name                        string
		to, from                    *route.Location
		leaving, updating, entering []string
	}{
		{
			name:     "sibling switch",
			to:       loc(root, b),
			from:     loc(root, a),
			leaving:  []string{"/a"},
			updating: []string{"/"},
			entering: []string{"/b"},
		},
		{
			name:     "deeper target",
			to:       loc(root, a, ab),
			from:     loc(root, a),
			leaving:  []string{},
			updating: []string{"/", "/a"},
			entering: []string{"/a/x"},
		},
		{
			name:     "from start",
			to:       loc(root, a),
			from:     route.StartLocation,
			leaving:  []string{},
			updating: []string{},
			entering: []string{"/", "/a"},
		},
		{
			name:     "unmatched target",
			to:       loc(),
			from:     loc(root, a),
			leaving:  []string{"/", "/a"},
			updating: []string{},
			entering: []string{},
		},
		{
			name:     "same path at other index is updating",
			to:       loc(a),
			from:     loc(root, a),
			leaving:  []string{"/"},
			updating: []string{"/a"},
			entering: []string{},
		},
		{
			name:     "nil locations",
			leaving:  []string{},
			updating: []string{},
			entering: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaving, updating, entering := ExtractChangingRecords(tt.to, tt.from)
			if got := paths(leaving); !reflect.DeepEqual(got, tt.leaving) {
				t.Errorf("leaving = %v, want %v", got, tt.leaving)
			}
			if got := paths(updating); !reflect.DeepEqual(got, tt.updating) {
				t.Errorf("updating = %v, want %v", got, tt.updating)
			}
			if got := paths(entering); !reflect.DeepEqual(got, tt.entering) {
				t.Errorf("entering = %v, want %v", got, tt.entering)
			}
		})
	}
}

func TestRunGuardOrder(t *testing.T) {
	rec := &recorder{}
	_, to, from := orderingFixture(rec)

	p := &Pipeline{
		BeforeEach: func() []route.Guard {
			return []route.Guard{rec.guard("beforeEach(1)"), rec.guard("beforeEach(2)")}
		},
		BeforeResolve: func() []route.Guard {
			return []route.Guard{rec.guard("beforeResolve(1)")}
		},
	}

	if err := p.Run(context.Background(), to, from); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"L2-leave", "L1-leave",
		"beforeEach(1)", "beforeEach(2)",
		"U1-update",
		"beforeEnter(1)", "beforeEnter(2)",
		"E1-enter", "E2-enter",
		"beforeResolve(1)",
	}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("log = %v\nwant  %v", rec.log, want)
	}
}

func TestRunUpdateRejectionStopsLaterPhases(t *testing.T) {
	rec := &recorder{}
	u1, to, from := orderingFixture(rec)
	denied := errors.New("denied")
	u1.updateErr = denied

	p := &Pipeline{
		BeforeResolve: func() []route.Guard {
			return []route.Guard{rec.guard("beforeResolve(1)")}
		},
	}

	err := p.Run(context.Background(), to, from)

	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("Run() error = %v, want *Failure", err)
	}
	if f.Kind != Rejected || f.Phase != PhaseUpdate {
		t.Errorf("failure = %v/%v, want rejected/beforeRouteUpdate", f.Kind, f.Phase)
	}
	if !errors.Is(err, ErrRejected) || !errors.Is(err, denied) {
		t.Errorf("errors.Is mismatch for %v", err)
	}
	if errors.Is(err, ErrAborted) {
		t.Errorf("rejection must not match ErrAborted")
	}

	want := []string{"L2-leave", "L1-leave", "U1-update"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("log = %v, want %v", rec.log, want)
	}
}

func TestRunIdentityRunsPhases(t *testing.T) {
	rec := &recorder{}
	_, to, _ := orderingFixture(rec)

	p := &Pipeline{
		BeforeEach: func() []route.Guard { return []route.Guard{rec.guard("beforeEach")} },
	}
	if err := p.Run(context.Background(), to, to); err != nil {
		t.Fatal(err)
	}
	want := []string{"beforeEach", "U1-update", "E1-update", "E2-update", "beforeEnter(1)", "beforeEnter(2)"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("log = %v, want %v", rec.log, want)
	}
}

func TestRunFailureKinds(t *testing.T) {
	target := loc(route.Normalize(route.Definition{Path: "/"}, ""))

	tests := []struct {
		name  string
		guard route.Guard
		kind  FailureKind
		is    error
	}{
		{
			name:  "abort",
			guard: route.Sync(func(_, _ *route.Location) error { return route.ErrAbort }),
			kind:  Aborted,
			is:    ErrAborted,
		},
		{
			name:  "panic",
			guard: route.Sync(func(_, _ *route.Location) error { panic("boom") }),
			kind:  Rejected,
			is:    ErrRejected,
		},
		{
			name: "async rejection",
			guard: route.Async(func(_, _ *route.Location) <-chan error {
				ch := make(chan error, 1)
				ch <- errors.New("later")
				return ch
			}),
			kind: Rejected,
			is:   ErrRejected,
		},
		{
			name: "next rejection from goroutine",
			guard: route.WithNext(func(_, _ *route.Location, next route.NextFunc) {
				go next(errors.New("no"))
			}),
			kind: Rejected,
			is:   ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{BeforeEach: func() []route.Guard { return []route.Guard{tt.guard} }}
			err := p.Run(context.Background(), target, route.StartLocation)

			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("Run() error = %v, want *Failure", err)
			}
			if f.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", f.Kind, tt.kind)
			}
			if f.Phase != PhaseBeforeEach {
				t.Errorf("Phase = %v, want beforeEach", f.Phase)
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.is)
			}
			if f.Coded() == nil {
				t.Errorf("Coded() = nil")
			}
		})
	}
}

func TestRunPanicValue(t *testing.T) {
	target := loc(route.Normalize(route.Definition{Path: "/"}, ""))
	p := &Pipeline{BeforeEach: func() []route.Guard {
		return []route.Guard{route.Sync(func(_, _ *route.Location) error { panic("boom") })}
	}}

	err := p.Run(context.Background(), target, route.StartLocation)
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" {
		t.Fatalf("Run() error = %v, want PanicError(boom)", err)
	}
}

func TestRunRedirect(t *testing.T) {
	target := loc(route.Normalize(route.Definition{Path: "/"}, ""))
	p := &Pipeline{BeforeResolve: func() []route.Guard {
		return []route.Guard{route.Sync(func(_, _ *route.Location) error { return route.Redirect("/login") })}
	}}

	err := p.Run(context.Background(), target, route.StartLocation)
	r, ok := AsRedirect(err)
	if !ok || r.To != "/login" {
		t.Fatalf("AsRedirect(%v) = %v, %v", err, r, ok)
	}
	if errors.Is(err, ErrRejected) {
		t.Errorf("redirect must not match ErrRejected")
	}
	if _, ok := AsRedirect(errors.New("plain")); ok {
		t.Errorf("AsRedirect(plain) = true")
	}
}

func TestRunCancellation(t *testing.T) {
	rec := &recorder{}
	_, to, from := orderingFixture(rec)

	t.Run("cancelled before run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := (&Pipeline{}).Run(ctx, to, from)
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("Run() error = %v, want ErrCancelled", err)
		}
		var f *Failure
		if errors.As(err, &f) && f.Phase != PhaseLeave {
			t.Errorf("Phase = %v, want beforeRouteLeave", f.Phase)
		}
	})

	t.Run("cancelled between guards", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ran := false
		p := &Pipeline{BeforeEach: func() []route.Guard {
			return []route.Guard{
				func(context.Context, *route.Location, *route.Location) error {
					cancel()
					return nil
				},
				route.Sync(func(_, _ *route.Location) error {
					ran = true
					return nil
				}),
			}
		}}

		err := p.Run(ctx, to, from)
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("Run() error = %v, want ErrCancelled", err)
		}
		if ran {
			t.Errorf("guard after cancellation ran")
		}
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := &Pipeline{BeforeEach: func() []route.Guard {
			return []route.Guard{route.WithNext(func(_, _ *route.Location, _ route.NextFunc) {
				cancel()
			})}
		}}

		err := p.Run(ctx, to, from)
		if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want ErrCancelled", err)
		}
	})
}

type phaseObserver struct {
	started  []Phase
	rejected []Phase
}

func (o *phaseObserver) PhaseStarted(_ context.Context, phase Phase, _ int) {
	o.started = append(o.started, phase)
}

func (o *phaseObserver) GuardRejected(_ context.Context, phase Phase, _ error) {
	o.rejected = append(o.rejected, phase)
}

func TestObserver(t *testing.T) {
	rec := &recorder{}
	_, to, from := orderingFixture(rec)

	obs := &phaseObserver{}
	p := &Pipeline{Observer: obs}
	if err := p.Run(context.Background(), to, from); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(obs.started, Phases) {
		t.Errorf("started = %v, want %v", obs.started, Phases)
	}

	obs = &phaseObserver{}
	p = &Pipeline{
		Observer: obs,
		BeforeResolve: func() []route.Guard {
			return []route.Guard{route.Sync(func(_, _ *route.Location) error { return route.ErrAbort })}
		},
	}
	_ = p.Run(context.Background(), to, from)
	if !reflect.DeepEqual(obs.rejected, []Phase{PhaseBeforeResolve}) {
		t.Errorf("rejected = %v", obs.rejected)
	}
}

func TestComponentViewOrder(t *testing.T) {
	rec := &recorder{}
	r := route.Normalize(route.Definition{
		Path:      "/",
		Component: &logComponent{id: "main", rec: rec},
		Components: map[string]any{
			"side":  &logComponent{id: "side", rec: rec},
			"aside": &logComponent{id: "aside", rec: rec},
			"plain": struct{}{},
		},
	}, "")

	if err := (&Pipeline{}).Run(context.Background(), loc(r), route.StartLocation); err != nil {
		t.Fatal(err)
	}
	want := []string{"main-enter", "aside-enter", "side-enter"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("log = %v, want %v", rec.log, want)
	}
}
