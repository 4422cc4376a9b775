// Package transport carries inter-node RPCs and the client-facing cache
// API over HTTP/JSON.
//
// Internal endpoints (node to node):
//
//	POST   /internal/put          body {"key","value","operationId","timestamp"}
//	GET    /internal/get?key=K    200 + {"key","value"}, 404 on miss
//	DELETE /internal/delete?key=K
//
// Public endpoints (client to any node, routed by the coordinator):
//
//	PUT    /cache/{key}           body is the raw value
//	GET    /cache/{key}
//	DELETE /cache/{key}
//
// Status codes: 200 success, 400 malformed request, 404 key not found,
// 500 internal error.
package transport
