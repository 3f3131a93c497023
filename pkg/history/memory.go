package history

import (
	"net/url"
	"strings"
	"sync"
)

// MemoryEntry is one slot of a MemoryPlatform stack.
type MemoryEntry struct {
	Location PlatformLocation
	State    []byte
}

type popListener struct {
	id uint64
	fn func([]byte)
}

// MemoryPlatform is an in-process session stack. Moves through the stack are
// delivered to popstate listeners synchronously, on the caller's goroutine.
type MemoryPlatform struct {
	mu        sync.Mutex
	entries   []MemoryEntry
	index     int
	scroll    ScrollPosition
	listeners []popListener
	nextID    uint64
}

// NewMemoryPlatform creates a stack holding a single state-less entry at
// initialURL ("/" when empty).
func NewMemoryPlatform(initialURL string) *MemoryPlatform {
	if initialURL == "" {
		initialURL = "/"
	}
	p := &MemoryPlatform{}
	p.entries = []MemoryEntry{{Location: resolveURL(PlatformLocation{Pathname: "/"}, initialURL)}}
	return p
}

// resolveURL resolves ref against the current location the way a browser
// resolves the url argument of pushState.
func resolveURL(cur PlatformLocation, ref string) PlatformLocation {
	base := &url.URL{
		Scheme:   "memory",
		Host:     "local",
		Path:     cur.Pathname,
		RawQuery: strings.TrimPrefix(cur.Search, "?"),
		Fragment: strings.TrimPrefix(cur.Hash, "#"),
	}
	r, err := url.Parse(ref)
	if err != nil {
		// keep the raw text as a path, as a browser would for an unparsable
		// relative reference
		return PlatformLocation{Pathname: ref}
	}
	u := base.ResolveReference(r)

	loc := PlatformLocation{Pathname: u.EscapedPath()}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if u.RawQuery != "" {
		loc.Search = "?" + u.RawQuery
	}
	if f := u.EscapedFragment(); f != "" {
		loc.Hash = "#" + f
	}
	return loc
}

// Location implements Platform.
func (p *MemoryPlatform) Location() PlatformLocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[p.index].Location
}

// State implements Platform.
func (p *MemoryPlatform) State() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[p.index].State
}

// Length implements Platform.
func (p *MemoryPlatform) Length() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Index returns the position of the current entry.
func (p *MemoryPlatform) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Entries returns a copy of the stack.
func (p *MemoryPlatform) Entries() []MemoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MemoryEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// PushState implements Platform.
func (p *MemoryPlatform) PushState(state []byte, rawURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	loc := resolveURL(p.entries[p.index].Location, rawURL)
	p.entries = append(p.entries[:p.index+1], MemoryEntry{Location: loc, State: state})
	p.index++
	return nil
}

// ReplaceState implements Platform.
func (p *MemoryPlatform) ReplaceState(state []byte, rawURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	loc := resolveURL(p.entries[p.index].Location, rawURL)
	p.entries[p.index] = MemoryEntry{Location: loc, State: state}
	return nil
}

// Scroll implements Platform.
func (p *MemoryPlatform) Scroll() ScrollPosition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scroll
}

// SetScroll sets the offsets reported by Scroll.
func (p *MemoryPlatform) SetScroll(left, top float64) {
	p.mu.Lock()
	p.scroll = ScrollPosition{Left: left, Top: top}
	p.mu.Unlock()
}

// Go implements Platform.
func (p *MemoryPlatform) Go(delta int) {
	p.mu.Lock()
	target := p.index + delta
	if delta == 0 || target < 0 || target >= len(p.entries) {
		p.mu.Unlock()
		return
	}
	p.index = target
	state := p.entries[target].State
	listeners := make([]popListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l.fn(state)
	}
}

// Back moves one entry back.
func (p *MemoryPlatform) Back() { p.Go(-1) }

// Forward moves one entry forward.
func (p *MemoryPlatform) Forward() { p.Go(1) }

// OnPopState implements Platform.
func (p *MemoryPlatform) OnPopState(fn func(state []byte)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners = append(p.listeners, popListener{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, l := range p.listeners {
				if l.id == id {
					p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

var _ Platform = (*MemoryPlatform)(nil)
