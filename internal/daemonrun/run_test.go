package daemonrun_test

import (
	"context"
	"os"
	"testing"
	"time"

	"storyreel/internal/daemonctl"
	"storyreel/internal/daemonrun"
	"storyreel/internal/testsupport"
)

func TestRunServesIPCUntilCanceled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: "warn"})
	}()

	client, err := daemonctl.WaitForClient(cfg.Paths.SocketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForClient: %v", err)
	}
	status, err := client.Status()
	client.Close()
	if err != nil || !status.Status.Running {
		t.Fatalf("expected running daemon, got %+v err=%v", status, err)
	}
	if _, err := os.Stat(daemonrun.PIDPath(cfg)); err != nil {
		t.Fatalf("expected pid file: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, err := os.Stat(daemonrun.PIDPath(cfg)); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
	if _, err := os.Stat(cfg.Paths.SocketPath); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, got %v", err)
	}
}
