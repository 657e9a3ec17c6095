// Package engine runs the generic resource operations and serves them over HTTP.
//
// An Engine executes list, create, get, update and delete for any kind in the
// resource registry:
//
//	payload -> Validator -> Repository (one pooled connection) -> Serializer -> response
//
// Failures come back as the typed errors of package resource and are turned
// into status codes and envelopes only at the HTTP boundary, by Handler.
//
// Handler mounts, per kind, a collection route (GET list, POST create) and an
// item route (GET, PUT, DELETE) under the kind's base path, plus the system
// routes:
//
//	GET /                       service index
//	GET /health                 database connectivity
//	GET /metrics                record counts, memory and operation counters
//	GET /simulate-errors?code=N canned error responses
//	GET /apidocs/openapi.json   OpenAPI 3 document
//
// Server wraps http.Server with context-driven graceful shutdown.
package engine
