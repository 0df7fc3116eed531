// Package app wires the election dashboard together: configuration, logging,
// OpenTelemetry, the dataset services, the WebSocket hub, the file watcher and
// the chi router, plus the server lifecycle (start, graceful stop).
package app
