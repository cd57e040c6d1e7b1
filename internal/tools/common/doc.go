// Package common provides shared utilities for MCP tool implementations:
// typed access to tool arguments and the instrumented handler wrapper that
// turns an adapter.Result into an MCP tool result while recording metrics,
// traces and the audit log.
package common
