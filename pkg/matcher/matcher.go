package matcher

import (
	"sync"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/route"
)

// NodeID identifies a node in the matcher arena.
type NodeID int

// NoParent is the parent of root nodes.
const NoParent NodeID = -1

var (
	// ErrDuplicateRoute is returned when two routes normalize to the same absolute path.
	ErrDuplicateRoute = errors.New("W101")

	// ErrDuplicateName is returned when two routes share a name.
	ErrDuplicateName = errors.New("W102")

	// ErrInvalidRoute is returned for definitions that cannot be normalized.
	ErrInvalidRoute = errors.New("W103")

	// ErrNotFound is returned by ResolveStrict when no route matches.
	ErrNotFound = errors.New("W104")

	// ErrUnknownParent is returned when AddRoute is given a parent that does not exist.
	ErrUnknownParent = errors.New("W105")
)

// node pairs a record with its tree links.
type node struct {
	record   *route.Record
	parent   NodeID
	children []NodeID
}

// Matcher owns the route tree.
type Matcher struct {
	mu sync.RWMutex

	// nodes is the arena; a NodeID indexes it.
	nodes []node

	// registry lists nodes in registration order (children before their parent).
	registry []NodeID

	byPath map[string]NodeID
	byName map[string]NodeID
}

// New builds a matcher from root definitions.
func New(routes []route.Definition) (*Matcher, error) {
	m := &Matcher{
		byPath: make(map[string]NodeID),
		byName: make(map[string]NodeID),
	}
	for _, def := range routes {
		if _, err := m.AddRoute(def, NoParent); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// pending is a node staged for insertion.
type pending struct {
	node
	id NodeID
}

// AddRoute normalizes def, nests it under parent (NoParent for a root route)
// and adds its children recursively. Either the whole subtree is added or,
// on error, nothing is.
func (m *Matcher) AddRoute(def route.Definition, parent NodeID) (NodeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parentPath := ""
	if parent != NoParent {
		if parent < 0 || int(parent) >= len(m.nodes) {
			return NoParent, errors.New("W105").WithDetailf("node %d", parent)
		}
		parentPath = m.nodes[parent].record.Path
	} else if def.Path == "" {
		return NoParent, errors.New("W103").WithDetail("root route has an empty path")
	}

	var staged []pending
	var order []NodeID
	paths := make(map[string]struct{})
	names := make(map[string]struct{})

	var stage func(def route.Definition, parent NodeID, parentPath string) (NodeID, error)
	stage = func(def route.Definition, parent NodeID, parentPath string) (NodeID, error) {
		rec := route.Normalize(def, parentPath)

		if _, dup := m.byPath[rec.Path]; dup {
			return NoParent, errors.New("W101").WithDetailf("path %q is already registered", rec.Path)
		}
		if _, dup := paths[rec.Path]; dup {
			return NoParent, errors.New("W101").WithDetailf("path %q appears twice in the added routes", rec.Path)
		}
		paths[rec.Path] = struct{}{}

		if rec.Name != "" {
			_, dupExisting := m.byName[rec.Name]
			_, dupStaged := names[rec.Name]
			if dupExisting || dupStaged {
				return NoParent, errors.New("W102").WithDetailf("name %q is already registered", rec.Name)
			}
			names[rec.Name] = struct{}{}
		}

		id := NodeID(len(m.nodes) + len(staged))
		staged = append(staged, pending{id: id, node: node{record: rec, parent: parent}})
		idx := len(staged) - 1

		for _, child := range rec.Children {
			childID, err := stage(child, id, rec.Path)
			if err != nil {
				return NoParent, err
			}
			staged[idx].children = append(staged[idx].children, childID)
		}

		order = append(order, id)
		return id, nil
	}

	rootID, err := stage(def, parent, parentPath)
	if err != nil {
		return NoParent, err
	}

	// Link everything at once, still under the write lock.
	for _, p := range staged {
		m.nodes = append(m.nodes, p.node)
		m.byPath[p.record.Path] = p.id
		if p.record.Name != "" {
			m.byName[p.record.Name] = p.id
		}
	}
	if parent != NoParent {
		m.nodes[parent].children = append(m.nodes[parent].children, rootID)
	}
	m.registry = append(m.registry, order...)

	return rootID, nil
}

// Resolve returns the location for path. A miss yields an empty Matched chain.
func (m *Matcher) Resolve(path string) *route.Location {
	p, query, hash := route.SplitPath(path)
	loc := &route.Location{
		FullPath: path,
		Path:     p,
		Query:    query,
		Hash:     hash,
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byPath[p]
	if !ok {
		loc.Matched = []*route.Record{}
		return loc
	}
	loc.Matched = m.chainLocked(id)
	return loc
}

// ResolveStrict is Resolve but reports a miss as ErrNotFound.
func (m *Matcher) ResolveStrict(path string) (*route.Location, error) {
	loc := m.Resolve(path)
	if !loc.Found() {
		return loc, errors.New("W104").WithDetail(loc.Path)
	}
	return loc, nil
}

// chainLocked walks parent links from id to the root and returns the records root first.
func (m *Matcher) chainLocked(id NodeID) []*route.Record {
	depth := 0
	for cur := id; cur != NoParent; cur = m.nodes[cur].parent {
		depth++
	}
	chain := make([]*route.Record, depth)
	for cur := id; cur != NoParent; cur = m.nodes[cur].parent {
		depth--
		chain[depth] = m.nodes[cur].record
	}
	return chain
}

// Lookup returns the node registered for an absolute path.
func (m *Matcher) Lookup(path string) (NodeID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPath[path]
	return id, ok
}

// LookupName returns the node registered under name.
func (m *Matcher) LookupName(name string) (NodeID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	return id, ok
}

// Record returns the record of a node.
func (m *Matcher) Record(id NodeID) *route.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || int(id) >= len(m.nodes) {
		return nil
	}
	return m.nodes[id].record
}

// Parent returns the parent of a node, or NoParent.
func (m *Matcher) Parent(id NodeID) NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || int(id) >= len(m.nodes) {
		return NoParent
	}
	return m.nodes[id].parent
}

// Children returns a copy of a node's children in insertion order.
func (m *Matcher) Children(id NodeID) []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || int(id) >= len(m.nodes) {
		return nil
	}
	return append([]NodeID(nil), m.nodes[id].children...)
}

// Roots returns the root nodes in insertion order.
func (m *Matcher) Roots() []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var roots []NodeID
	for i, n := range m.nodes {
		if n.parent == NoParent {
			roots = append(roots, NodeID(i))
		}
	}
	return roots
}

// Records returns every record in registration order.
func (m *Matcher) Records() []*route.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*route.Record, len(m.registry))
	for i, id := range m.registry {
		out[i] = m.nodes[id].record
	}
	return out
}

// Len returns the number of registered routes.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}
