package server

import (
	"context"
	"testing"
)

func TestServerContext_ShutdownCancelsContext(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	if err := sc.Context().Err(); err != nil {
		t.Fatalf("context done before shutdown: %v", err)
	}
	if sc.Drive() == nil || sc.Drive().Authenticated() {
		t.Error("nil adapter should be replaced by an unauthenticated one")
	}

	if err := sc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown")
	}
	select {
	case <-sc.Context().Done():
	default:
		t.Error("context not cancelled by Shutdown")
	}
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestServerContext_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewServerContext(parent, nil)

	cancel()
	<-sc.Context().Done()
	if sc.IsShutdown() {
		t.Error("parent cancellation should not mark the context as shut down")
	}
}
