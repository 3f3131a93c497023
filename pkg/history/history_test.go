package history

import (
	"encoding/json"
	"errors"
	"testing"
)

func newWeb(t *testing.T, initial string) (*MemoryPlatform, *History) {
	t.Helper()
	p := NewMemoryPlatform(initial)
	h, err := NewWebHistory(p, "")
	if err != nil {
		t.Fatalf("NewWebHistory() error = %v", err)
	}
	return p, h
}

func decodeEntry(t *testing.T, e MemoryEntry) State {
	t.Helper()
	st, err := DecodeState(e.State)
	if err != nil {
		t.Fatalf("DecodeState(%s) error = %v", e.State, err)
	}
	return st
}

func TestStateEncodingAbsentFields(t *testing.T) {
	raw, err := State{Current: "/a", Position: 2}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if v, ok := m["back"]; !ok || v != nil {
		t.Errorf("back = %v, want null", v)
	}
	if v, ok := m["forward"]; !ok || v != nil {
		t.Errorf("forward = %v, want null", v)
	}
	if m["scroll"] != false {
		t.Errorf("scroll = %v, want false", m["scroll"])
	}
	if m["current"] != "/a" || m["position"] != float64(2) {
		t.Errorf("unexpected encoding %s", raw)
	}
}

func TestStateRoundTrip(t *testing.T) {
	in := State{
		Back:     "/",
		Current:  "/a",
		Forward:  "/b",
		Replace:  true,
		Scroll:   &ScrollPosition{Left: 1, Top: 240},
		Position: 3,
		Data:     map[string]any{"tab": "settings"},
	}
	raw, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeState(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out.Back != in.Back || out.Current != in.Current || out.Forward != in.Forward ||
		out.Replace != in.Replace || out.Position != in.Position {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if out.Scroll == nil || *out.Scroll != *in.Scroll {
		t.Errorf("Scroll = %v, want %v", out.Scroll, in.Scroll)
	}
	if out.Data["tab"] != "settings" {
		t.Errorf("Data = %v", out.Data)
	}
}

func TestDecodeStateInvalid(t *testing.T) {
	_, err := DecodeState([]byte("{not json"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("DecodeState() error = %v, want ErrInvalidState", err)
	}
}

func TestNewWritesInitialState(t *testing.T) {
	p, h := newWeb(t, "/users?x=1")

	if got := h.Location().Get(); got != "/users?x=1" {
		t.Errorf("Location() = %q, want %q", got, "/users?x=1")
	}
	if p.Length() != 1 {
		t.Fatalf("Length() = %d, want 1", p.Length())
	}
	st := decodeEntry(t, p.Entries()[0])
	if st.Current != "/users?x=1" || !st.Replace || st.Position != 0 || st.Back != "" || st.Forward != "" {
		t.Errorf("initial state = %+v", st)
	}
	if h.State().Get().Current != "/users?x=1" {
		t.Errorf("State cell not published")
	}
}

func TestNewReusesExistingState(t *testing.T) {
	p, h := newWeb(t, "/")
	if err := h.Push("/a", nil); err != nil {
		t.Fatal(err)
	}

	h2, err := NewWebHistory(p, "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Length() != 2 {
		t.Errorf("Length() = %d, want 2", p.Length())
	}
	if got := h2.State().Get(); got.Position != 1 || got.Back != "/" {
		t.Errorf("State() = %+v, want position 1 with back \"/\"", got)
	}
}

func TestPushTwoWrites(t *testing.T) {
	p, h := newWeb(t, "/")
	p.SetScroll(0, 120)

	if err := h.Push("/a", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	entries := p.Entries()
	if len(entries) != 2 || p.Index() != 1 {
		t.Fatalf("entries = %d index = %d, want 2 and 1", len(entries), p.Index())
	}

	left := decodeEntry(t, entries[0])
	if left.Forward != "/a" {
		t.Errorf("left.Forward = %q, want /a", left.Forward)
	}
	if left.Scroll == nil || left.Scroll.Top != 120 {
		t.Errorf("left.Scroll = %v, want top 120", left.Scroll)
	}
	if left.Position != 0 {
		t.Errorf("left.Position = %d, want 0", left.Position)
	}

	pushed := decodeEntry(t, entries[1])
	if pushed.Back != "/" || pushed.Current != "/a" || pushed.Forward != "" || pushed.Replace {
		t.Errorf("pushed = %+v", pushed)
	}
	if pushed.Position != 1 {
		t.Errorf("pushed.Position = %d, want 1", pushed.Position)
	}
	if pushed.Scroll != nil {
		t.Errorf("pushed.Scroll = %v, want nil", pushed.Scroll)
	}
	if pushed.Data["k"] != "v" {
		t.Errorf("pushed.Data = %v", pushed.Data)
	}

	if got := p.Location().Pathname; got != "/a" {
		t.Errorf("platform pathname = %q, want /a", got)
	}
	if got := h.Location().Get(); got != "/a" {
		t.Errorf("Location() = %q, want /a", got)
	}
}

func TestReplaceKeepsPointers(t *testing.T) {
	p, h := newWeb(t, "/")
	_ = h.Push("/a", map[string]any{"keep": "yes"})
	_ = h.Push("/b", nil)
	p.Back()

	if err := h.Replace("/c", map[string]any{"extra": "1"}); err != nil {
		t.Fatal(err)
	}
	st := h.State().Get()
	if st.Back != "/" || st.Current != "/c" || st.Forward != "/b" || !st.Replace || st.Position != 1 {
		t.Errorf("State() = %+v", st)
	}
	if st.Data["keep"] != "yes" || st.Data["extra"] != "1" {
		t.Errorf("Data = %v, want merged", st.Data)
	}
	if p.Length() != 3 {
		t.Errorf("Length() = %d, want 3", p.Length())
	}
	if got := h.Location().Get(); got != "/c" {
		t.Errorf("Location() = %q, want /c", got)
	}
}

type popCall struct {
	to, from string
	info     NavigationInfo
}

func TestListenDirection(t *testing.T) {
	p, h := newWeb(t, "/")
	_ = h.Push("/a", nil)
	_ = h.Push("/b", nil)

	var calls []popCall
	h.Listen(func(to, from string, info NavigationInfo) {
		calls = append(calls, popCall{to, from, info})
	})

	p.Back()
	p.Back()
	p.Forward()
	p.Go(1)

	want := []popCall{
		{"/a", "/b", NavigationInfo{Delta: -1, IsBack: true, Direction: DirectionBack}},
		{"/", "/a", NavigationInfo{Delta: -1, IsBack: true, Direction: DirectionBack}},
		{"/a", "/", NavigationInfo{Delta: 1, Direction: DirectionForward}},
		{"/b", "/a", NavigationInfo{Delta: 1, Direction: DirectionForward}},
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %+v", len(calls), len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
	if h.Location().Get() != "/b" {
		t.Errorf("Location() = %q, want /b", h.Location().Get())
	}
}

func TestGoWithoutListeners(t *testing.T) {
	p, h := newWeb(t, "/")
	_ = h.Push("/a", nil)

	called := 0
	h.Listen(func(string, string, NavigationInfo) { called++ })

	h.Go(-1, false)
	if called != 0 {
		t.Errorf("listener called %d times, want 0", called)
	}
	if h.Location().Get() != "/" || p.Index() != 0 {
		t.Errorf("Location() = %q index %d, want / and 0", h.Location().Get(), p.Index())
	}

	h.Forward()
	if called != 1 {
		t.Errorf("listener called %d times, want 1", called)
	}
}

func TestRemoveListenerAndDestroy(t *testing.T) {
	p, h := newWeb(t, "/")
	_ = h.Push("/a", nil)

	a, b := 0, 0
	removeA := h.Listen(func(string, string, NavigationInfo) { a++ })
	h.Listen(func(string, string, NavigationInfo) { b++ })

	removeA()
	removeA()
	p.Back()
	if a != 0 || b != 1 {
		t.Errorf("a=%d b=%d, want 0 and 1", a, b)
	}

	h.Destroy()
	p.Forward()
	if b != 1 {
		t.Errorf("b=%d after Destroy, want 1", b)
	}
}

func TestPopStateWithoutState(t *testing.T) {
	p, h := newWeb(t, "/")
	if err := p.PushState(nil, "/raw"); err != nil {
		t.Fatal(err)
	}

	var got []popCall
	h.Listen(func(to, from string, info NavigationInfo) {
		got = append(got, popCall{to, from, info})
	})

	p.Back()
	p.Forward()

	if len(got) != 2 {
		t.Fatalf("got %d calls, want 2", len(got))
	}
	if got[1].to != "/raw" || got[1].info.Delta != 0 || got[1].info.IsBack {
		t.Errorf("second call = %+v", got[1])
	}
	st := decodeEntry(t, p.Entries()[1])
	if st.Current != "/raw" || !st.Replace {
		t.Errorf("normalized state = %+v", st)
	}
}

func TestHashHistory(t *testing.T) {
	p := NewMemoryPlatform("/app/index.html")
	h, err := NewHashHistory(p, "")
	if err != nil {
		t.Fatal(err)
	}
	if h.Base() != "#" {
		t.Errorf("Base() = %q, want #", h.Base())
	}
	if got := h.Location().Get(); got != "/" {
		t.Errorf("Location() = %q, want /", got)
	}
	if got := h.CreateHref("/x"); got != "#/x" {
		t.Errorf("CreateHref() = %q, want #/x", got)
	}

	if err := h.Push("/x?y=1", nil); err != nil {
		t.Fatal(err)
	}
	loc := p.Location()
	if loc.Pathname != "/app/index.html" || loc.Hash != "#/x?y=1" {
		t.Errorf("platform location = %+v", loc)
	}
	if got := h.Location().Get(); got != "/x?y=1" {
		t.Errorf("Location() = %q", got)
	}

	p.Back()
	if got := h.Location().Get(); got != "/" {
		t.Errorf("Location() after back = %q, want /", got)
	}
}

func TestHashHistoryCustomMarker(t *testing.T) {
	p := NewMemoryPlatform("/#!/docs")
	h, err := NewHashHistory(p, "/#!")
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Location().Get(); got != "/docs" {
		t.Errorf("Location() = %q, want /docs", got)
	}
}

func TestWebHistoryBase(t *testing.T) {
	p := NewMemoryPlatform("/app/users")
	h, err := NewWebHistory(p, "/app/")
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Location().Get(); got != "/users" {
		t.Errorf("Location() = %q, want /users", got)
	}
	if err := h.Push("/a", nil); err != nil {
		t.Fatal(err)
	}
	if got := p.Location().Pathname; got != "/app/a" {
		t.Errorf("pathname = %q, want /app/a", got)
	}
}

func TestMemoryPlatform(t *testing.T) {
	p := NewMemoryPlatform("")
	_ = p.PushState([]byte("1"), "/a")
	_ = p.PushState([]byte("2"), "/b")

	t.Run("go out of range is ignored", func(t *testing.T) {
		fired := 0
		remove := p.OnPopState(func([]byte) { fired++ })
		defer remove()

		p.Go(5)
		p.Go(-5)
		p.Go(0)
		if fired != 0 || p.Index() != 2 {
			t.Errorf("fired=%d index=%d, want 0 and 2", fired, p.Index())
		}
	})

	t.Run("push truncates forward entries", func(t *testing.T) {
		p.Back()
		p.Back()
		_ = p.PushState([]byte("3"), "/c")
		entries := p.Entries()
		if len(entries) != 2 {
			t.Fatalf("len = %d, want 2", len(entries))
		}
		if entries[1].Location.Pathname != "/c" || string(entries[1].State) != "3" {
			t.Errorf("entry = %+v", entries[1])
		}
	})

	t.Run("relative urls resolve against current entry", func(t *testing.T) {
		_ = p.ReplaceState(nil, "?q=1")
		_ = p.ReplaceState(nil, "#top")
		loc := p.Location()
		if loc.Pathname != "/c" || loc.Search != "?q=1" || loc.Hash != "#top" {
			t.Errorf("Location() = %+v", loc)
		}
	})
}
