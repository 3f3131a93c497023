package matcher

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/vango-dev/waypoint/pkg/route"
)

func exampleRoutes() []route.Definition {
	return []route.Definition{
		{
			Path: "/",
			Name: "home",
			Children: []route.Definition{
				{Path: "a", Name: "a"},
				{Path: "b", Name: "b", Children: []route.Definition{
					{Path: "/deep", Name: "deep"},
				}},
			},
		},
		{Path: "/about", Name: "about"},
	}
}

func mustNew(t *testing.T, routes []route.Definition) *Matcher {
	t.Helper()
	m, err := New(routes)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return m
}

func TestNew_AbsolutePaths(t *testing.T) {
	m := mustNew(t, exampleRoutes())

	var got []string
	for _, rec := range m.Records() {
		got = append(got, rec.Path)
	}
	// registration order: children before their parent
	want := []string{"/a", "/b/deep", "/b", "/", "/about"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Records paths = %v, want %v", got, want)
	}
	if m.Len() != 5 {
		t.Errorf("Len() = %d, want 5", m.Len())
	}
}

func TestResolve(t *testing.T) {
	m := mustNew(t, exampleRoutes())

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"/"}},
		{"/a", []string{"/", "/a"}},
		{"/b", []string{"/", "/b"}},
		{"/b/deep", []string{"/", "/b", "/b/deep"}},
		{"/about", []string{"/about"}},
		{"/a?x=1#top", []string{"/", "/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc := m.Resolve(tt.path)
			if got := loc.Paths(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) chain = %v, want %v", tt.path, got, tt.want)
			}
			if loc.FullPath != tt.path {
				t.Errorf("FullPath = %q, want %q", loc.FullPath, tt.path)
			}
		})
	}
}

func TestResolve_QueryAndHash(t *testing.T) {
	m := mustNew(t, exampleRoutes())
	loc := m.Resolve("/a?x=1#top")
	if loc.Path != "/a" || loc.Query.Get("x") != "1" || loc.Hash != "#top" {
		t.Errorf("Resolve parts = %q %v %q", loc.Path, loc.Query, loc.Hash)
	}
}

func TestResolve_MissIsEmptyChain(t *testing.T) {
	m := mustNew(t, exampleRoutes())

	for _, p := range []string{"/missing", "a", "/a/", ""} {
		loc := m.Resolve(p)
		if loc.Matched == nil || len(loc.Matched) != 0 {
			t.Errorf("Resolve(%q).Matched = %v, want empty non-nil", p, loc.Matched)
		}
		if loc.Found() {
			t.Errorf("Resolve(%q).Found() = true", p)
		}
	}
}

func TestResolveStrict(t *testing.T) {
	m := mustNew(t, exampleRoutes())

	if _, err := m.ResolveStrict("/a"); err != nil {
		t.Fatalf("ResolveStrict(/a) error: %v", err)
	}
	loc, err := m.ResolveStrict("/nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if loc == nil || loc.Found() {
		t.Error("ResolveStrict should still return the empty location")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	m := mustNew(t, exampleRoutes())
	first := m.Resolve("/b/deep")
	second := m.Resolve("/b/deep")
	if !reflect.DeepEqual(first, second) {
		t.Error("Resolve should be structurally stable for an unchanged tree")
	}
}

func TestResolve_ChainIsExactlyAncestors(t *testing.T) {
	m := mustNew(t, exampleRoutes())

	for _, rec := range m.Records() {
		id, ok := m.Lookup(rec.Path)
		if !ok {
			t.Fatalf("Lookup(%q) failed", rec.Path)
		}
		var want []string
		for cur := id; cur != NoParent; cur = m.Parent(cur) {
			want = append([]string{m.Record(cur).Path}, want...)
		}
		if got := m.Resolve(rec.Path).Paths(); !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve(%q) = %v, want %v", rec.Path, got, want)
		}
	}
}

func TestAddRoute_Dynamic(t *testing.T) {
	m := mustNew(t, exampleRoutes())

	parent, ok := m.LookupName("b")
	if !ok {
		t.Fatal("LookupName(b) failed")
	}
	id, err := m.AddRoute(route.Definition{Path: "/c", Name: "c"}, parent)
	if err != nil {
		t.Fatalf("AddRoute error: %v", err)
	}

	if got := m.Resolve("/b/c").Paths(); !reflect.DeepEqual(got, []string{"/", "/b", "/b/c"}) {
		t.Errorf("dynamic chain = %v", got)
	}
	if m.Parent(id) != parent {
		t.Errorf("Parent = %d, want %d", m.Parent(id), parent)
	}
	children := m.Children(parent)
	if len(children) != 2 || children[1] != id {
		t.Errorf("Children(b) = %v, want new node appended last", children)
	}
}

func TestAddRoute_DuplicatePath(t *testing.T) {
	t.Run("siblings", func(t *testing.T) {
		_, err := New([]route.Definition{
			{Path: "/", Children: []route.Definition{{Path: "a"}, {Path: "a"}}},
		})
		if !errors.Is(err, ErrDuplicateRoute) {
			t.Fatalf("err = %v, want ErrDuplicateRoute", err)
		}
	})

	t.Run("against existing tree", func(t *testing.T) {
		m := mustNew(t, exampleRoutes())
		home := mustLookup(t, m, "/")

		// "/" + "about" collides with the root route "/about"
		_, err := m.AddRoute(route.Definition{Path: "about"}, home)
		if !errors.Is(err, ErrDuplicateRoute) {
			t.Fatalf("err = %v, want ErrDuplicateRoute", err)
		}
	})

	t.Run("failed subtree leaves tree unchanged", func(t *testing.T) {
		m := mustNew(t, exampleRoutes())
		home := mustLookup(t, m, "/")
		before := m.Len()

		// "/c" + "" collides with "/c" itself after "/c/leaf" was staged
		_, err := m.AddRoute(route.Definition{
			Path:     "c",
			Children: []route.Definition{{Path: "/leaf"}, {Path: ""}},
		}, home)
		if !errors.Is(err, ErrDuplicateRoute) {
			t.Fatalf("err = %v, want ErrDuplicateRoute", err)
		}
		if m.Len() != before {
			t.Errorf("Len = %d after failed add, want %d", m.Len(), before)
		}
		if m.Resolve("/c/leaf").Found() || m.Resolve("/c").Found() {
			t.Error("staged nodes of a failed add must not be visible")
		}
		if len(m.Children(home)) != 2 {
			t.Errorf("Children(/) = %v, want unchanged", m.Children(home))
		}
	})
}

func mustLookup(t *testing.T, m *Matcher, path string) NodeID {
	t.Helper()
	id, ok := m.Lookup(path)
	if !ok {
		t.Fatalf("Lookup(%q) failed", path)
	}
	return id
}

func TestAddRoute_DuplicateName(t *testing.T) {
	_, err := New([]route.Definition{
		{Path: "/a", Name: "same"},
		{Path: "/b", Name: "same"},
	})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestAddRoute_InvalidAndUnknownParent(t *testing.T) {
	m := mustNew(t, nil)

	if _, err := m.AddRoute(route.Definition{}, NoParent); !errors.Is(err, ErrInvalidRoute) {
		t.Errorf("empty root path err = %v, want ErrInvalidRoute", err)
	}
	if _, err := m.AddRoute(route.Definition{Path: "/a"}, NodeID(42)); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("unknown parent err = %v, want ErrUnknownParent", err)
	}
}

func TestRoots(t *testing.T) {
	m := mustNew(t, exampleRoutes())
	var got []string
	for _, id := range m.Roots() {
		got = append(got, m.Record(id).Path)
	}
	if !reflect.DeepEqual(got, []string{"/", "/about"}) {
		t.Errorf("Roots = %v", got)
	}
}

func TestConcurrentResolveDuringAdd(t *testing.T) {
	m := mustNew(t, exampleRoutes())
	parent := mustLookup(t, m, "/about")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = m.AddRoute(route.Definition{
				Path:     fmt.Sprintf("/n%d", i),
				Children: []route.Definition{{Path: "/leaf"}},
			}, parent)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			loc := m.Resolve(fmt.Sprintf("/about/n%d/leaf", i))
			// either not visible yet or fully linked
			if loc.Found() && len(loc.Matched) != 3 {
				t.Errorf("half-linked chain %v", loc.Paths())
			}
		}
	}()
	wg.Wait()
}
