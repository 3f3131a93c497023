// Package route defines the data shared by the matcher, the navigation
// pipeline and the router: route definitions, normalized records, resolved
// locations and guards.
//
// # Definitions
//
// Routes are declared as a tree. Child paths are relative to their parent and
// are concatenated onto the parent's absolute path:
//
//	routes := []route.Definition{
//	    {
//	        Path:      "/",
//	        Name:      "home",
//	        Component: Home,
//	        Children: []route.Definition{
//	            {Path: "a", Component: A}, // "/a"
//	            {Path: "b", Component: B}, // "/b"
//	        },
//	    },
//	}
//
// # Guards
//
// Every guard has one shape, Guard. Returning nil lets the navigation proceed,
// returning an error rejects it. Guards written in other styles are adapted at
// registration time:
//
//	route.Sync(func(to, from *route.Location) error { ... })          // return style
//	route.Async(func(to, from *route.Location) <-chan error { ... })  // future style
//	route.WithNext(func(to, from *route.Location, next route.NextFunc) { next(nil) })
//
// A guard may also return ErrAbort to cancel the navigation quietly, or
// Redirect("/login") to send it somewhere else.
package route
