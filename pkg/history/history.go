package history

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/reactive"
)

// NavigationDirection describes a platform-driven move.
type NavigationDirection string

const (
	DirectionBack    NavigationDirection = "back"
	DirectionForward NavigationDirection = "forward"
	DirectionUnknown NavigationDirection = ""
)

// NavigationInfo describes a popstate.
type NavigationInfo struct {
	// Delta is the position difference between the new and previous entries.
	Delta int

	// IsBack is true when Delta is negative.
	IsBack bool

	Direction NavigationDirection
}

// Listener is called for every platform-driven navigation.
type Listener func(to, from string, info NavigationInfo)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Option configures a History.
type Option func(*History)

// WithLogger sets the logger used for history writes.
func WithLogger(l *slog.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// History keeps a session-history stack in sync with the current unit.
type History struct {
	platform Platform
	base     string
	hashMode bool

	location *reactive.Cell[string]
	state    *reactive.Cell[State]

	// mu serializes writes to the platform.
	mu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []listenerEntry
	nextID      uint64

	paused    atomic.Bool
	removePop func()
	logger    *slog.Logger
}

// NewWebHistory creates a path-based history. A non-empty base is stripped
// from the pathname when reading the current unit and prefixed when writing.
func NewWebHistory(p Platform, base string, opts ...Option) (*History, error) {
	return newHistory(p, normalizeBase(base), opts)
}

// NewHashHistory creates a fragment-based history. The base is forced to
// contain a "#" marker and the unit is the text that follows it.
func NewHashHistory(p Platform, base string, opts ...Option) (*History, error) {
	if !strings.Contains(base, "#") {
		base += "#"
	}
	return newHistory(p, base, opts)
}

func normalizeBase(base string) string {
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") && !strings.HasPrefix(base, "#") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}

func newHistory(p Platform, base string, opts []Option) (*History, error) {
	h := &History{
		platform: p,
		base:     base,
		hashMode: strings.Contains(base, "#"),
		logger:   slog.Default().With("component", "history"),
	}
	for _, opt := range opts {
		opt(h)
	}

	current := h.currentUnit()
	h.location = reactive.NewCell(current)

	st, ok := h.platformState()
	if !ok {
		st = State{
			Current:  current,
			Replace:  true,
			Position: p.Length() - 1,
		}
		if err := h.write(current, st, true); err != nil {
			return nil, err
		}
	}
	h.state = reactive.NewCell(st)
	h.removePop = p.OnPopState(h.handlePopState)
	return h, nil
}

// platformState decodes the platform's current state. Undecodable state is
// treated as absent.
func (h *History) platformState() (State, bool) {
	raw := h.platform.State()
	if raw == nil {
		return State{}, false
	}
	st, err := DecodeState(raw)
	if err != nil {
		h.logger.Warn("discarding history state", "error", err)
		return State{}, false
	}
	return st, true
}

// Base returns the normalized base.
func (h *History) Base() string {
	return h.base
}

// currentUnit reads the unit from the platform location.
func (h *History) currentUnit() string {
	loc := h.platform.Location()
	if i := strings.Index(h.base, "#"); i >= 0 {
		marker := h.base[i:]
		if !strings.HasPrefix(loc.Hash, marker) {
			return "/"
		}
		unit := loc.Hash[len(marker):]
		if unit == "" {
			return "/"
		}
		if unit[0] != '/' {
			unit = "/" + unit
		}
		return unit
	}

	path := loc.Pathname
	if h.base != "" && strings.HasPrefix(strings.ToLower(path), strings.ToLower(h.base)) {
		path = path[len(h.base):]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return path + loc.Search + loc.Hash
}

// CreateHref returns the platform URL for unit.
func (h *History) CreateHref(unit string) string {
	return h.base + unit
}

// Location returns the current unit.
func (h *History) Location() reactive.Readable[string] {
	return h.location.ReadOnly()
}

// State returns the state of the current entry.
func (h *History) State() reactive.Readable[State] {
	return h.state.ReadOnly()
}

// write stores st on the platform at unit, then publishes it.
func (h *History) write(unit string, st State, replace bool) error {
	raw, err := st.Encode()
	if err != nil {
		return errors.New("W210").Wrap(err)
	}
	href := h.CreateHref(unit)
	if replace {
		err = h.platform.ReplaceState(raw, href)
	} else {
		err = h.platform.PushState(raw, href)
	}
	if err != nil {
		return errors.New("W210").Wrap(err).WithDetailf("url %s", href)
	}
	if h.state != nil {
		h.state.Set(st)
	}
	return nil
}

// Push adds a new entry for to. The entry being left first records to as its
// forward unit along with the current scroll offsets.
func (h *History) Push(to string, data map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	leaving := h.state.Get()
	scroll := h.platform.Scroll()
	leaving.Forward = to
	leaving.Scroll = &scroll
	if err := h.write(leaving.Current, leaving, true); err != nil {
		return err
	}

	next := State{
		Back:     h.location.Get(),
		Current:  to,
		Position: leaving.Position + 1,
		Data:     mergeData(nil, data),
	}
	if err := h.write(to, next, false); err != nil {
		return err
	}
	h.location.Set(to)
	h.logger.Debug("history push", "to", to, "position", next.Position)
	return nil
}

// Replace overwrites the current entry with to, keeping its back and forward
// pointers and position.
func (h *History) Replace(to string, data map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.state.Get()
	next := State{
		Back:     cur.Back,
		Current:  to,
		Forward:  cur.Forward,
		Replace:  true,
		Position: cur.Position,
		Data:     mergeData(cur.Data, data),
	}
	if err := h.write(to, next, true); err != nil {
		return err
	}
	h.location.Set(to)
	h.logger.Debug("history replace", "to", to, "position", next.Position)
	return nil
}

// Go moves delta entries through the platform stack. When triggerListeners
// is false, listeners are not called for the resulting popstate.
func (h *History) Go(delta int, triggerListeners bool) {
	if !triggerListeners {
		h.paused.Store(true)
	}
	h.platform.Go(delta)
}

// Back moves one entry back.
func (h *History) Back() { h.Go(-1, true) }

// Forward moves one entry forward.
func (h *History) Forward() { h.Go(1, true) }

// Listen registers fn for platform-driven navigations. The returned function
// removes it.
func (h *History) Listen(fn Listener) (remove func()) {
	h.listenersMu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, listenerEntry{id: id, fn: fn})
	h.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.listenersMu.Lock()
			defer h.listenersMu.Unlock()
			for i, l := range h.listeners {
				if l.id == id {
					h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (h *History) handlePopState(raw []byte) {
	h.mu.Lock()
	to := h.currentUnit()
	from := h.location.Get()
	fromState := h.state.Get()

	var st State
	delta := 0
	decoded, err := DecodeState(raw)
	if raw != nil && err == nil {
		st = decoded
		delta = st.Position - fromState.Position
	} else {
		// entries written outside the adapter carry no state
		st = State{Current: to, Replace: true, Position: fromState.Position}
		if werr := h.write(to, st, true); werr != nil {
			h.logger.Warn("normalizing popstate entry failed", "to", to, "error", werr)
		}
	}
	h.state.Set(st)
	h.location.Set(to)
	h.mu.Unlock()

	if h.paused.Swap(false) {
		h.logger.Debug("history pop paused", "to", to, "from", from)
		return
	}

	info := NavigationInfo{Delta: delta, IsBack: delta < 0}
	switch {
	case delta < 0:
		info.Direction = DirectionBack
	case delta > 0:
		info.Direction = DirectionForward
	}
	h.logger.Debug("history pop", "to", to, "from", from, "delta", delta)

	h.listenersMu.RLock()
	listeners := make([]listenerEntry, len(h.listeners))
	copy(listeners, h.listeners)
	h.listenersMu.RUnlock()

	for _, l := range listeners {
		l.fn(to, from, info)
	}
}

// Destroy detaches the history from the platform and drops all listeners.
func (h *History) Destroy() {
	if h.removePop != nil {
		h.removePop()
	}
	h.listenersMu.Lock()
	h.listeners = nil
	h.listenersMu.Unlock()
}
