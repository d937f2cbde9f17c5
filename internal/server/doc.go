// Package server wires the HTTP router, the middleware chain and the single
// top-level interceptor that turns handler failures into response envelopes.
// It also provides lifecycle helpers used by tests and the production binary.
package server
