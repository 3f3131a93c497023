// Package matcher builds the route tree and resolves literal paths to matched
// record chains.
//
// Nodes live in an append-only arena; parent and child links are indices into
// it, so a node never owns its parent. A subtree added with AddRoute becomes
// visible to Resolve only once every node in it is linked.
//
//	m, err := matcher.New([]route.Definition{
//	    {Path: "/", Children: []route.Definition{{Path: "a"}, {Path: "b"}}},
//	})
//	loc := m.Resolve("/a")
//	// loc.Paths() == []string{"/", "/a"}
//
// Matching is literal: there are no parameters or wildcards. A path that
// matches nothing resolves to an empty chain; use ResolveStrict to get
// ErrNotFound instead.
package matcher
