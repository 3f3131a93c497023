package route

import (
	"net/url"
	"strings"
)

// Location is the result of resolving a path: the path itself plus its
// root-to-leaf chain of matched records.
type Location struct {
	// FullPath is the addressable form: path, query and fragment.
	FullPath string

	// Path is the literal path used for matching.
	Path string

	// Query holds parsed query parameters. It never takes part in matching.
	Query url.Values

	// Hash is the fragment including the leading "#", if any.
	Hash string

	// Matched is the chain of records, root first.
	Matched []*Record
}

// StartLocation is the sentinel current location of a router that has not
// committed any navigation yet. It is compared by identity.
var StartLocation = &Location{
	FullPath: "/",
	Path:     "/",
	Query:    url.Values{},
}

// SplitPath separates a target such as "/a?x=1#top" into its path, query and
// fragment parts. Malformed queries are kept as empty values.
func SplitPath(target string) (path string, query url.Values, hash string) {
	path = target
	if i := strings.IndexByte(path, '#'); i >= 0 {
		hash = path[i:]
		path = path[:i]
	}
	rawQuery := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		rawQuery = path[i+1:]
		path = path[:i]
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	return path, query, hash
}

// Found reports whether any record matched.
func (l *Location) Found() bool {
	return l != nil && len(l.Matched) > 0
}

// Leaf returns the deepest matched record, or nil.
func (l *Location) Leaf() *Record {
	if !l.Found() {
		return nil
	}
	return l.Matched[len(l.Matched)-1]
}

// Name returns the leaf record's name.
func (l *Location) Name() string {
	if leaf := l.Leaf(); leaf != nil {
		return leaf.Name
	}
	return ""
}

// MergedMeta merges the meta of every matched record; deeper records win.
func (l *Location) MergedMeta() map[string]any {
	out := map[string]any{}
	if l == nil {
		return out
	}
	for _, rec := range l.Matched {
		for k, v := range rec.Meta {
			out[k] = v
		}
	}
	return out
}

// Paths returns the absolute paths of the matched chain.
func (l *Location) Paths() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.Matched))
	for i, rec := range l.Matched {
		out[i] = rec.Path
	}
	return out
}

// String returns the full path.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return l.FullPath
}
