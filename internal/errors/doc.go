// Package errors provides coded, actionable errors for waypoint.
//
// Every failure the engine reports to a caller carries a stable code that maps to
// a registered template:
//   - W1xx: route table construction (duplicate paths, invalid definitions)
//   - W2xx: navigation (guard rejection, abort, cancellation, redirect loops)
//   - W3xx: route table files (parse, validation, remote fetch)
//   - W4xx: configuration and CLI
//
// Errors compare by code, so a freshly built error matches the package
// sentinel built from the same code:
//
//	err := errors.New("W101").WithDetail(`path "/a" is already registered`)
//	stderrors.Is(err, errors.New("W101")) // true
//
// Format renders an error for terminals:
//
//	ERROR W101: Duplicate route path
//
//	  path "/a" is already registered
//
//	  Hint: Give each route a unique absolute path
package errors
