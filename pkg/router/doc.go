// Package router is the entry point of waypoint.
//
// A Router owns the route matcher, the current location and the global guard
// registries. Navigations resolve their target, run the guard pipeline and
// commit the result to the history adapter:
//
//	h, _ := history.NewWebHistory(history.NewMemoryPlatform("/"), "")
//	r, err := router.New(h, []route.Definition{
//	    {Path: "/", Component: Home{}, Children: []route.Definition{
//	        {Path: "users", Name: "users", Component: Users{}},
//	    }},
//	})
//	r.BeforeEach(route.Sync(func(to, from *route.Location) error {
//	    if to.MergedMeta()["auth"] == true && !loggedIn() {
//	        return route.Redirect("/login")
//	    }
//	    return nil
//	}))
//	err = r.Push(ctx, "/users")
//
// The first committed navigation replaces the current history entry; later
// ones push. Back and forward moves made on the platform are run through the
// same guards and undone when a guard rejects them.
package router
