//go:build unix

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/qsnshell/qsn/internal/transcript"
)

func newTestStore(t *testing.T) *transcript.Store {
	t.Helper()

	store, err := transcript.NewStore(transcript.StoreOptions{
		SessionID: NewSessionID(),
		Dir:       t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestRunCapturesOutput(t *testing.T) {
	store := newTestStore(t)

	result, err := Run(context.Background(), store, Options{
		Command: []string{"echo", "hello from qsn"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", result.ExitCode)
	}

	if result.TimedOut {
		t.Fatalf("TimedOut = true, want false")
	}

	combined := strings.Join(store.SnapshotLines(), "\n")
	if !strings.Contains(combined, "hello from qsn") {
		t.Fatalf("transcript lines = %q, want to contain %q", combined, "hello from qsn")
	}
}

func TestRunReportsNonZeroExit(t *testing.T) {
	store := newTestStore(t)

	result, err := Run(context.Background(), store, Options{
		Command: []string{"sh", "-c", "exit 3"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", result.ExitCode)
	}
}

func TestRunTimesOutAndKillsChild(t *testing.T) {
	store := newTestStore(t)

	result, err := Run(context.Background(), store, Options{
		Command: []string{"sleep", "30"},
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.TimedOut {
		t.Fatalf("TimedOut = false, want true")
	}

	if result.Duration >= 30*time.Second {
		t.Fatalf("Duration = %v, want well under the 30s sleep", result.Duration)
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	store := newTestStore(t)

	if _, err := Run(context.Background(), store, Options{}); err == nil {
		t.Fatal("Run with empty command: want error, got nil")
	}
}
