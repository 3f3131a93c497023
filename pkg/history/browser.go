package history

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/vugu/vugu/js"
)

// BrowserPlatform drives window.history and window.location. It is only
// usable in a js/wasm build running inside a browser.
type BrowserPlatform struct {
	window js.Value

	mu        sync.Mutex
	listeners []popListener
	nextID    uint64
	popFunc   js.Func
}

// NewBrowserPlatform binds to the global window.
func NewBrowserPlatform() (*BrowserPlatform, error) {
	g := js.Global()
	if !g.Truthy() {
		return nil, errors.New("not in browser (js) environment")
	}
	w := g.Get("window")
	if !w.Truthy() {
		return nil, errors.New("window is not defined")
	}
	return &BrowserPlatform{window: w}, nil
}

// Location implements Platform.
func (b *BrowserPlatform) Location() PlatformLocation {
	loc := b.window.Get("location")
	return PlatformLocation{
		Pathname: loc.Get("pathname").String(),
		Search:   loc.Get("search").String(),
		Hash:     loc.Get("hash").String(),
	}
}

// State implements Platform.
func (b *BrowserPlatform) State() []byte {
	return b.encode(b.window.Get("history").Get("state"))
}

func (b *BrowserPlatform) encode(v js.Value) []byte {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	// state is stored as a JSON string; other scripts may store objects
	raw := []byte(b.window.Get("JSON").Call("stringify", v).String())
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}
	return raw
}

// Length implements Platform.
func (b *BrowserPlatform) Length() int {
	return b.window.Get("history").Get("length").Int()
}

// PushState implements Platform.
func (b *BrowserPlatform) PushState(state []byte, url string) error {
	b.window.Get("history").Call("pushState", string(state), "", url)
	return nil
}

// ReplaceState implements Platform.
func (b *BrowserPlatform) ReplaceState(state []byte, url string) error {
	b.window.Get("history").Call("replaceState", string(state), "", url)
	return nil
}

// Scroll implements Platform.
func (b *BrowserPlatform) Scroll() ScrollPosition {
	return ScrollPosition{
		Left: b.window.Get("pageXOffset").Float(),
		Top:  b.window.Get("pageYOffset").Float(),
	}
}

// Go implements Platform.
func (b *BrowserPlatform) Go(delta int) {
	b.window.Get("history").Call("go", delta)
}

// OnPopState implements Platform. The window listener is installed with the
// first registration and removed with the last.
func (b *BrowserPlatform) OnPopState(fn func(state []byte)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, popListener{id: id, fn: fn})
	if b.popFunc.IsUndefined() {
		b.popFunc = js.FuncOf(b.handlePop)
		b.window.Call("addEventListener", "popstate", b.popFunc)
	}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *BrowserPlatform) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			break
		}
	}
	if len(b.listeners) == 0 && !b.popFunc.IsUndefined() {
		b.window.Call("removeEventListener", "popstate", b.popFunc)
		b.popFunc.Release()
		b.popFunc = js.Func{}
	}
}

func (b *BrowserPlatform) handlePop(this js.Value, args []js.Value) interface{} {
	var state []byte
	if len(args) > 0 {
		state = b.encode(args[0].Get("state"))
	}
	b.mu.Lock()
	listeners := make([]popListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		l.fn(state)
	}
	return nil
}

var _ Platform = (*BrowserPlatform)(nil)
