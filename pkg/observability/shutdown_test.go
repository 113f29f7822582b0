package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestNewShutdownManagerDefaults(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})
	server := &http.Server{}

	sm := NewShutdownManager(logger, server, 0)
	if sm.shutdownTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", sm.shutdownTimeout)
	}

	sm = NewShutdownManager(logger, server, 10*time.Second)
	if sm.shutdownTimeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", sm.shutdownTimeout)
	}
	if len(sm.shutdownFuncs) != 0 {
		t.Error("Expected empty shutdown functions slice")
	}
}

func TestRegisterShutdownFunc(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, time.Second)

	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })
	}

	if len(sm.shutdownFuncs) != 3 {
		t.Errorf("Expected 3 shutdown functions, got %d", len(sm.shutdownFuncs))
	}
}

func TestWaitForShutdownRunsRegisteredFuncs(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), nil, 5*time.Second)

	var calls int32
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	errChan := make(chan error, 1)
	go func() { errChan <- sm.WaitForShutdown() }()

	// Give WaitForShutdown a moment to install its signal handler.
	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send signal: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not complete in time")
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 shutdown calls, got %d", got)
	}
}

func TestWaitForShutdownReportsFailures(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, &bytes.Buffer{}), nil, 5*time.Second)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return errors.New("close failed")
	})

	errChan := make(chan error, 1)
	go func() { errChan <- sm.WaitForShutdown() }()

	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send signal: %v", err)
	}

	select {
	case err := <-errChan:
		if err == nil {
			t.Error("Expected an error from the failing shutdown function")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not complete in time")
	}
}
