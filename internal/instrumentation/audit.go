package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one MCP tool call for the audit log.
//
// File names and contents never enter a ToolInvocation; the only Drive
// identifier recorded is the file id, and only when the audit logger is
// configured to include it.
type ToolInvocation struct {
	ID   string
	Tool string

	Operation string
	FileID    string

	StartTime time.Time
	Duration  time.Duration
	// Status is success, empty or error.
	Status    string
	ErrorKind string
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool invocation and assigns it an id.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithOperation sets the Drive operation the tool performs.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithFileID sets the Drive file the tool targets.
func (ti *ToolInvocation) WithFileID(id string) *ToolInvocation {
	ti.FileID = id
	return ti
}

// WithSpanContext copies the trace context from the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stops the clock and records the outcome.
func (ti *ToolInvocation) Complete(status, errorKind string, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Status = status
	ti.ErrorKind = errorKind
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Failed reports whether the invocation ended in an error.
func (ti *ToolInvocation) Failed() bool {
	return ti.Status == StatusError
}

// LogAttrs returns the slog attributes of the invocation.
func (ti *ToolInvocation) LogAttrs(includeFileID bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.ID),
		slog.String("tool", ti.Tool),
		slog.String("status", ti.Status),
		slog.Duration("duration", ti.Duration),
	}

	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if includeFileID && ti.FileID != "" {
		attrs = append(attrs, slog.String("file_id", ti.FileID))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}

	return attrs
}

// AuditLogger writes one structured line per tool invocation.
type AuditLogger struct {
	logger         *slog.Logger
	includeFileIDs bool
	enabled        bool
}

// NewAuditLogger creates an enabled AuditLogger that includes file ids.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludeFileIDs: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:         logger.With("component", "audit"),
		includeFileIDs: config.IncludeFileIDs,
		enabled:        config.Enabled,
	}
}

// LogToolInvocation logs tool_executed at info level, or tool_failed at warn
// level when the invocation ended in an error.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeFileIDs)
	if ti.Failed() {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "tool_failed", attrs...)
		return
	}
	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "tool_executed", attrs...)
}
