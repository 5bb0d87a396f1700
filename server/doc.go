// Package server exposes an index over HTTP with gin.
//
// Endpoints:
//
//	POST /search                 rank companies against a query
//	GET  /health                 readiness and snapshot statistics
//	GET  /entities/:id/status    why an entity can or cannot be ranked
//
// A search request body looks like:
//
//	{"query": "provides consultancy services.", "top_n": 5,
//	 "exclude": ["company provides consumer loans"], "exclude_threshold": 0.6}
//
// Invalid input answers 400. An index without a snapshot, or an unavailable
// embedding model, answers 503. Anything else answers 500.
package server
