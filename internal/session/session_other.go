//go:build !unix

package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/qsnshell/qsn/internal/transcript"
)

// Options configures a recorded run. PTY recording is unix-only; see
// session.go.
type Options struct {
	SessionID string
	Command   []string
	Dir       string
	Env       []string
	Cols      int
	Rows      int
	Timeout   time.Duration
}

// Result reports how the recorded command finished.
type Result struct {
	SessionID string
	ExitCode  int
	Duration  time.Duration
	TimedOut  bool
}

// Run always fails on non-unix platforms: there is no PTY to attach to.
func Run(_ context.Context, _ *transcript.Store, _ Options) (*Result, error) {
	return nil, errors.New("session: recording a command requires a PTY, which this platform does not support")
}

// NewSessionID generates a session identifier suitable for a transcript.Store.
func NewSessionID() string {
	return uuid.NewString()
}
