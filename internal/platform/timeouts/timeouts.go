// Package timeouts defines the timeout constants shared by service processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Request caps the time a single MCP tool call may spend in storage.
const Request = 10 * time.Second
