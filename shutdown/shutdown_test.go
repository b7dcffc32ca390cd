//go:build !windows

package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestOnSignalCancels(t *testing.T) {
	forced := make(chan struct{}, 1)
	ctx, stop := OnSignal(context.Background(), func() { forced <- struct{}{} })
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by signal")
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatal(err)
	}
	select {
	case <-forced:
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not force")
	}
}

func TestStopCancelsWithoutSignal(t *testing.T) {
	ctx, stop := OnSignal(context.Background(), nil)
	stop()
	stop()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("stop did not cancel context")
	}
}
