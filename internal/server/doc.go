// Package server hosts the Fiber HTTP service and its middleware chain:
// request IDs, access logging, HSTS in production, static assets, and the
// environment-aware error handler that either returns error details (development)
// or renders the Error view (production). Page and diagnostics routes live in
// other packages and are registered on the returned app by the caller, so keep
// exports narrow and accept explicit dependencies.
package server
