// Package http implements the dashboard's HTTP handlers. Handlers stay
// thin: they parse and validate the query, call a service and render the
// result, leaving errors to the shared RFC 7807 error handler.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Pipeline
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Selections
//
// Dashboard endpoints read the selection from repeatable query
// parameters:
//
//	GET /api/dashboard/charts?agent=DRL&agent=basestock&sensitivity=0.1
//	    &disruption=short+(67-72)&metric=DS+1+state
//
// A selection that names unknown values is rejected with 400. A
// selection that is merely incomplete is answered with 200 and guidance
// in the body.
package http
