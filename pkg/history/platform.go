package history

// PlatformLocation is the address of the current platform entry.
type PlatformLocation struct {
	Pathname string
	Search   string // including "?" when present
	Hash     string // including "#" when present
}

// String joins the location parts.
func (l PlatformLocation) String() string {
	return l.Pathname + l.Search + l.Hash
}

// Platform is the session-history storage a History drives.
type Platform interface {
	// Location returns the address of the current entry.
	Location() PlatformLocation

	// State returns the serialized state of the current entry, nil when none.
	State() []byte

	// Length returns the number of entries in the stack.
	Length() int

	// PushState adds an entry after the current one, dropping forward entries.
	PushState(state []byte, url string) error

	// ReplaceState overwrites the current entry.
	ReplaceState(state []byte, url string) error

	// Scroll returns the current scroll offsets.
	Scroll() ScrollPosition

	// Go moves delta entries through the stack. Out-of-range moves are ignored.
	// A successful move is reported to OnPopState listeners.
	Go(delta int)

	// OnPopState registers fn for platform-driven moves. The returned function
	// removes it.
	OnPopState(fn func(state []byte)) (remove func())
}
