package route

import "maps"

// DefaultView is the render slot a Definition's Component is assigned to.
const DefaultView = "default"

// Definition is a user-authored route. It is never modified after it is passed in.
type Definition struct {
	// Path is relative to the parent route (absolute for root routes).
	Path string

	// Name is an optional global identifier.
	Name string

	// Component is rendered in the default view.
	Component any

	// Components maps named views to components. Component, if set, wins for DefaultView.
	Components map[string]any

	// Children are nested routes.
	Children []Definition

	// Meta is opaque data merged root-to-leaf on resolved locations.
	Meta map[string]any

	// BeforeEnter guards run when this route is part of the target chain.
	BeforeEnter []Guard

	// Redirect sends navigations that land exactly on this route elsewhere.
	Redirect string
}

// Record is a normalized Definition with an absolute path.
type Record struct {
	Path        string
	Name        string
	Meta        map[string]any
	BeforeEnter []Guard
	Components  map[string]any
	Children    []Definition
	Redirect    string
}

// Normalize builds the record for def nested under parentPath. An empty
// parentPath means def is a root route.
func Normalize(def Definition, parentPath string) *Record {
	rec := &Record{
		Path:     parentPath + def.Path,
		Name:     def.Name,
		Meta:     def.Meta,
		Children: def.Children,
		Redirect: def.Redirect,
	}
	if rec.Meta == nil {
		rec.Meta = map[string]any{}
	}
	if len(def.BeforeEnter) > 0 {
		rec.BeforeEnter = append([]Guard(nil), def.BeforeEnter...)
	}

	rec.Components = make(map[string]any, len(def.Components)+1)
	maps.Copy(rec.Components, def.Components)
	if def.Component != nil {
		rec.Components[DefaultView] = def.Component
	}
	return rec
}

// Component returns the component assigned to view, or nil.
func (r *Record) Component(view string) any {
	return r.Components[view]
}
