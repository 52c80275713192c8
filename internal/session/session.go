//go:build unix

// Package session runs a single command under a PTY and records everything
// it writes to stdout/stderr into a transcript.Store, so the recording can
// later be replayed byte-for-byte through the QSN codec.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/qsnshell/qsn/internal/observability"
	"github.com/qsnshell/qsn/internal/qsn"
	"github.com/qsnshell/qsn/internal/transcript"
)

const defaultShutdownDeadline = 5 * time.Second

// Options configures a recorded run.
type Options struct {
	// SessionID identifies the run in Result even when store is nil.
	SessionID string
	// Command is the argv to execute; Command[0] is resolved via PATH.
	Command []string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration
}

// Result reports how the recorded command finished.
type Result struct {
	SessionID string
	ExitCode  int
	Duration  time.Duration
	TimedOut  bool
}

// Run starts opts.Command under a PTY, streams its combined output into
// store, and waits for it to exit or for opts.Timeout to elapse. On
// timeout the process group is sent SIGTERM and then SIGKILL, mirroring
// the shutdown sequence a PTY-driven harness uses to stop a runaway child.
func Run(ctx context.Context, store *transcript.Store, opts Options) (result *Result, err error) {
	ctx, span := observability.Tracer("qsn/internal/session").Start(ctx, "session.run")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	span.SetAttributes(
		attribute.String("session.command", quoteCommandForLog(opts.Command)),
		attribute.Int("session.cols", opts.Cols),
		attribute.Int("session.rows", opts.Rows),
	)

	if len(opts.Command) == 0 {
		return nil, errors.New("session: command is required")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	path, err := exec.LookPath(opts.Command[0])
	if err != nil {
		return nil, fmt.Errorf("session: resolve %q: %w", opts.Command[0], err)
	}

	cmd := exec.Command(path, opts.Command[1:]...) //nolint:gosec // argv originates from the caller's own invocation

	cmd.Dir = opts.Dir

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	cmd.Env = append(env, "TERM=xterm-256color")

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = 80
	}

	if rows <= 0 {
		rows = 24
	}

	slog.Default().Debug("starting recorded session",
		slog.String("component", "session"),
		slog.String("command", quoteCommandForLog(opts.Command)))

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("session: start pty: %w", err)
	}

	pgid := 0
	if cmd.Process != nil {
		if g, pgErr := syscall.Getpgid(cmd.Process.Pid); pgErr == nil {
			pgid = g
		}
	}

	var copyWG sync.WaitGroup

	copyWG.Add(1)

	go func() {
		defer copyWG.Done()
		copyOutput(ptmx, store)
	}()

	waitCh := make(chan error, 1)

	go func() {
		waitCh <- cmd.Wait()
	}()

	startedAt := time.Now()

	var (
		waitErr  error
		timedOut bool
	)

	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		timedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		waitErr = shutdown(cmd, pgid, waitCh)
	}

	duration := time.Since(startedAt)

	_ = ptmx.Close()
	copyWG.Wait()

	exitCode := 0

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else if !timedOut {
			return nil, fmt.Errorf("session: wait: %w", waitErr)
		} else {
			exitCode = -1
		}
	}

	sessionID := opts.SessionID
	if sessionID == "" && store != nil {
		sessionID = store.SessionID()
	}

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("session.exit_code", exitCode),
		attribute.Bool("session.timed_out", timedOut),
	)

	return &Result{
		SessionID: sessionID,
		ExitCode:  exitCode,
		Duration:  duration,
		TimedOut:  timedOut,
	}, nil
}

// NewSessionID generates a session identifier suitable for a transcript.Store.
func NewSessionID() string {
	return uuid.NewString()
}

// quoteCommandForLog renders argv through qsn.MaybeEncode before it reaches
// a log attribute, so a command line carrying newlines or control bytes
// cannot forge additional log lines or corrupt a structured log record.
func quoteCommandForLog(command []string) string {
	parts := make([]string, len(command))
	for i, arg := range command {
		parts[i] = qsn.MaybeEncode([]byte(arg), qsn.UTF8)
	}

	return strings.Join(parts, " ")
}

func copyOutput(ptmx *os.File, store *transcript.Store) {
	buf := make([]byte, 4096)

	for {
		n, err := ptmx.Read(buf)
		if n > 0 && store != nil {
			if appendErr := store.Append("stdout", buf[:n]); appendErr != nil {
				slog.Default().Warn("recorded session: append transcript event failed",
					slog.String("component", "session"),
					slog.Any("error", appendErr))
			}
		}

		if err != nil {
			return
		}
	}
}

// shutdown sends SIGTERM to the process group, escalating to SIGKILL if
// the process hasn't exited within defaultShutdownDeadline, and returns
// whatever cmd.Wait eventually reports. It is the only reader of waitCh
// once a timeout has fired.
func shutdown(cmd *exec.Cmd, pgid int, waitCh <-chan error) error {
	if cmd.Process == nil {
		return <-waitCh
	}

	sendSignal(cmd.Process.Pid, pgid, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		return err
	case <-time.After(defaultShutdownDeadline):
		sendSignal(cmd.Process.Pid, pgid, syscall.SIGKILL)
		return <-waitCh
	}
}

func sendSignal(pid, pgid int, sig syscall.Signal) {
	if pgid > 0 {
		if err := syscall.Kill(-pgid, sig); err == nil || errors.Is(err, syscall.ESRCH) {
			return
		}
	}

	if pid <= 0 {
		return
	}

	_ = syscall.Kill(pid, sig)
}
