package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivetools/internal/adapter"
	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/server"
)

// ToolFunc runs one tool call and returns the adapter's result.
type ToolFunc func(ctx context.Context, request mcp.CallToolRequest) adapter.Result

// HandlerOption configures InstrumentedToolHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	operation string
	readOnly  bool
}

// ForOperation tags spans and audit lines with the Drive operation the tool
// performs and whether it mutates Drive.
func ForOperation(operation string, readOnly bool) HandlerOption {
	return func(c *handlerConfig) {
		c.operation = operation
		c.readOnly = readOnly
	}
}

// InstrumentedToolHandler wraps fn with tracing, metrics and audit logging
// and converts its result to an MCP tool result. Error results are marked
// IsError; the handler itself never returns a Go error.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("drive_read_file", sc, fn,
//		common.ForOperation(instrumentation.OperationDownload, true)))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, fn ToolFunc, opts ...HandlerOption) mcpserver.ToolHandlerFunc {
	cfg := handlerConfig{readOnly: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileID := request.GetString("file_id", "")

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithFileID(fileID).
			WithReadOnly(cfg.readOnly).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithOperation(cfg.operation).
			WithSpanContext(ctx).
			WithFileID(fileID)

		result := fn(ctx, request)
		duration := time.Since(start)

		status := MetricStatus(result.Status)
		invocation.Complete(status, string(result.Kind), result.Err)

		span.SetAttributes(instrumentation.StatusAttr(status))
		if result.IsError() {
			span.SetAttributes(instrumentation.ErrorKindAttr(string(result.Kind)))
			instrumentation.SetSpanError(span, result.Err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		sc.AuditLogger().LogToolInvocation(invocation)

		if result.IsError() {
			return mcp.NewToolResultError(result.Text), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}

// MetricStatus maps an adapter status to the status label used in metrics
// and audit logs.
func MetricStatus(s adapter.Status) string {
	switch s {
	case adapter.StatusOK:
		return instrumentation.StatusSuccess
	case adapter.StatusEmpty:
		return instrumentation.StatusEmpty
	default:
		return instrumentation.StatusError
	}
}
