// Package http contains the HTTP transport layer: chi routers and handlers
// for the election data API, health checks, and summary exports. Responses
// use a uniform JSON envelope and errors follow RFC 7807.
package http
