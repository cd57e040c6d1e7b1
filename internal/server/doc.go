// Package server provides the state shared by the MCP tool handlers and the
// HTTP servers drivetools runs.
//
// # Key Components
//
// ServerContext holds the Drive adapter together with the metrics recorder
// and audit logger used by the tool handlers. It is safe for concurrent use.
//
// HTTPServer serves the MCP server over the streamable HTTP transport at
// /mcp, recording per-request metrics through MetricsMiddleware.
//
// MetricsServer exposes /metrics for Prometheus and the /healthz and /readyz
// probes of HealthChecker on a dedicated port, so operational data is not
// reachable through the MCP endpoint.
package server
