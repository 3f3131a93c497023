package router

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/matcher"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/reactive"
	"github.com/vango-dev/waypoint/pkg/route"
)

// History is the part of a history adapter the router drives.
// *history.History implements it.
type History interface {
	Location() reactive.Readable[string]
	Push(to string, data map[string]any) error
	Replace(to string, data map[string]any) error
	Listen(fn history.Listener) (remove func())
	Go(delta int, triggerListeners bool)
}

// AfterHook is called after every committed navigation.
type AfterHook func(to, from *route.Location)

// Router resolves and commits navigations.
type Router struct {
	matcher *matcher.Matcher
	history History
	current *reactive.Cell[*route.Location]

	// mu protects the guard registries and removeListener.
	mu            sync.RWMutex
	beforeEach    []route.Guard
	beforeResolve []route.Guard
	afterEach     []AfterHook

	pipeline *navigation.Pipeline

	// listening is set once the popstate bridge is registered.
	listening      atomic.Bool
	removeListener func()
	ready          atomic.Bool
	seq            atomic.Uint64

	maxRedirects int
	logger       *slog.Logger
	tracer       trace.Tracer
	metrics      *metrics
}

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the limit.
	ErrTooManyRedirects = errors.New("W204")

	// ErrUnknownName is returned when a target names a route that does not exist.
	ErrUnknownName = errors.New("W205")
)

// New creates a router over h with the given route definitions.
func New(h History, routes []route.Definition, opts ...Option) (*Router, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()

	m, err := matcher.New(routes)
	if err != nil {
		return nil, err
	}

	r := &Router{
		matcher:      m,
		history:      h,
		current:      reactive.NewCell(route.StartLocation),
		maxRedirects: cfg.MaxRedirects,
		logger:       cfg.Logger.With("component", "router"),
		tracer:       cfg.Tracer,
	}
	if cfg.Registry != nil {
		r.metrics = newMetrics(cfg.Registry, cfg.Namespace)
		r.metrics.setRoutes(m.Len())
	}
	r.pipeline = &navigation.Pipeline{
		BeforeEach:    r.beforeEachGuards,
		BeforeResolve: r.beforeResolveGuards,
		Observer:      &observer{r: r},
	}
	return r, nil
}

// CurrentRoute returns the current location. It holds route.StartLocation
// until the first navigation commits.
func (r *Router) CurrentRoute() reactive.Readable[*route.Location] {
	return r.current.ReadOnly()
}

// IsReady reports whether a navigation has committed.
func (r *Router) IsReady() bool {
	return r.ready.Load()
}

// BeforeEach registers a guard for the beforeEach phase.
func (r *Router) BeforeEach(g route.Guard) {
	r.mu.Lock()
	r.beforeEach = append(r.beforeEach, g)
	r.mu.Unlock()
}

// BeforeResolve registers a guard for the beforeResolve phase.
func (r *Router) BeforeResolve(g route.Guard) {
	r.mu.Lock()
	r.beforeResolve = append(r.beforeResolve, g)
	r.mu.Unlock()
}

// AfterEach registers a hook called after every commit.
func (r *Router) AfterEach(h AfterHook) {
	r.mu.Lock()
	r.afterEach = append(r.afterEach, h)
	r.mu.Unlock()
}

func (r *Router) beforeEachGuards() []route.Guard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]route.Guard(nil), r.beforeEach...)
}

func (r *Router) beforeResolveGuards() []route.Guard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]route.Guard(nil), r.beforeResolve...)
}

func (r *Router) afterHooks() []AfterHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]AfterHook(nil), r.afterEach...)
}

// Resolve resolves a path, query and fragment against the route tree. A path
// with no route yields an empty Matched chain.
func (r *Router) Resolve(to string) *route.Location {
	return r.matcher.Resolve(to)
}

// ResolveTarget resolves a structured target.
func (r *Router) ResolveTarget(t Target) (*route.Location, error) {
	full, err := r.targetPath(t)
	if err != nil {
		return nil, err
	}
	return r.matcher.Resolve(full), nil
}

// targetPath builds the addressable form of t.
func (r *Router) targetPath(t Target) (string, error) {
	path := t.Path
	if t.Name != "" {
		id, ok := r.matcher.LookupName(t.Name)
		if !ok {
			return "", errors.New("W205").WithDetailf("name %q", t.Name)
		}
		path = r.matcher.Record(id).Path
	}

	p, q, hash := route.SplitPath(path)
	for k, vs := range t.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if t.Hash != "" {
		hash = t.Hash
		if hash[0] != '#' {
			hash = "#" + hash
		}
	}
	return joinPath(p, q, hash), nil
}

func joinPath(path string, q url.Values, hash string) string {
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	return path + hash
}

// AddRoute registers a root route and its children.
func (r *Router) AddRoute(def route.Definition) error {
	_, err := r.matcher.AddRoute(def, matcher.NoParent)
	if err == nil {
		r.metrics.setRoutes(r.matcher.Len())
	}
	return err
}

// AddChildRoute registers def under the route named parentName.
func (r *Router) AddChildRoute(parentName string, def route.Definition) error {
	parent, ok := r.matcher.LookupName(parentName)
	if !ok {
		return errors.New("W105").WithDetailf("name %q", parentName)
	}
	_, err := r.matcher.AddRoute(def, parent)
	if err == nil {
		r.metrics.setRoutes(r.matcher.Len())
	}
	return err
}

// HasRoute reports whether a route named name exists.
func (r *Router) HasRoute(name string) bool {
	_, ok := r.matcher.LookupName(name)
	return ok
}

// Routes returns every record in registration order, children before
// their parent.
func (r *Router) Routes() []*route.Record {
	return r.matcher.Records()
}

// Matcher returns the route matcher.
func (r *Router) Matcher() *matcher.Matcher {
	return r.matcher
}

// Back moves one history entry back.
func (r *Router) Back() { r.Go(-1) }

// Forward moves one history entry forward.
func (r *Router) Forward() { r.Go(1) }

// Go moves n history entries. The resulting navigation runs through the
// guard pipeline.
func (r *Router) Go(n int) {
	r.history.Go(n, true)
}

// Start runs the initial navigation to the history's current location. It
// does nothing once a navigation has committed.
func (r *Router) Start(ctx context.Context) error {
	if r.current.Get() != route.StartLocation {
		return nil
	}
	return r.Push(ctx, r.history.Location().Get())
}

// Close detaches the router from the history adapter.
func (r *Router) Close() {
	r.mu.Lock()
	remove := r.removeListener
	r.removeListener = nil
	r.mu.Unlock()
	if remove != nil {
		remove()
	}
}
