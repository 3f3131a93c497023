// Package history synchronizes waypoint with a session-history stack.
//
// A History wraps a Platform (the browser's window.history, or the in-memory
// MemoryPlatform used by tests and the CLI) and keeps a serializable State
// alongside every entry. Two variants share the same API:
//
//	h, _ := history.NewWebHistory(p, "")    // unit is path + query + fragment
//	h, _ := history.NewHashHistory(p, "")   // unit is the text after "#"
//
// Push performs two platform writes: the entry being left is updated in place
// with its forward pointer and scroll offsets, then the new entry is pushed
// with position = previous position + 1. Listen reports platform-driven
// navigations (back/forward) with the direction derived from the position
// delta.
package history
