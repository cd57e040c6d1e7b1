package server

import (
	"context"
	"sync"

	"github.com/teemow/drivetools/internal/adapter"
	"github.com/teemow/drivetools/internal/instrumentation"
)

// ServerContext holds the state shared by all MCP tool handlers
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	drive       *adapter.Adapter
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context serving Drive through a.
// A nil adapter is replaced by one that reports Drive as not authenticated.
func NewServerContext(ctx context.Context, a *adapter.Adapter) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if a == nil {
		a = adapter.New(nil, nil)
	}
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		drive:  a,
	}
}

// Context returns the server context. It is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Drive returns the Drive adapter
func (sc *ServerContext) Drive() *adapter.Adapter {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.drive
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil if audit logging is disabled
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
