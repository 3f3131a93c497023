// Package navigation runs the guard phases of a navigation attempt.
//
// A Pipeline classifies the records of the target and current locations into
// leaving, updating and entering sets, then settles six phases strictly in
// order:
//
//  1. beforeRouteLeave on leaving components, deepest first
//  2. global beforeEach guards
//  3. beforeRouteUpdate on updating components
//  4. beforeEnter guards declared on target records
//  5. beforeRouteEnter on entering components
//  6. global beforeResolve guards
//
// Each guard only starts after the previous one settled. The first guard to
// return an error ends the run with a *Failure; later guards never run.
package navigation
