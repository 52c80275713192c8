package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qsnshell/qsn/internal/config"
	clierrors "github.com/qsnshell/qsn/internal/errors"
	"github.com/qsnshell/qsn/internal/output"
	"github.com/qsnshell/qsn/internal/session"
	"github.com/qsnshell/qsn/internal/terminal"
	"github.com/qsnshell/qsn/internal/transcript"
)

func newRunCmd() *cobra.Command {
	var (
		timeout string
		cols    int
		rows    int
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "run -- COMMAND [ARG...]",
		Short: "Run a command under a PTY and record its output",
		Long: `Start COMMAND attached to a pseudo-terminal and record everything it
writes to a transcript session, so the run can later be replayed with
'qsn transcript show' and quoted safely through the QSN codec even if
it wrote control bytes or invalid UTF-8.

Requires a Unix PTY; see 'qsn doctor' to check platform support.`,
		Example: `  qsn run -- echo hello
  qsn run --timeout 30s -- ./flaky-script.sh
  qsn run --cols 120 --rows 40 -- htop`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			var dur time.Duration
			if timeout != "" {
				d, err := time.ParseDuration(timeout)
				if err != nil {
					return clierrors.Wrap(clierrors.ExitUsage, "invalid --timeout", err)
				}
				dur = d
			}

			effCols, effRows := cols, rows
			if effCols <= 0 || effRows <= 0 {
				// --cols/--rows weren't overridden: size the recorded PTY
				// to match the invoking terminal, the way a directly
				// attached shell would, instead of a fixed 80x24 that
				// could clip wide output.
				info := terminal.Detect()
				if effCols <= 0 {
					effCols = info.Width
				}

				if effRows <= 0 {
					effRows = info.Height
				}
			}

			sessionID := session.NewSessionID()

			var store *transcript.Store
			if !noStore && cfg.TranscriptEnabled() {
				s, err := transcript.NewStore(transcript.StoreOptions{
					SessionID: sessionID,
					Dir:       cfg.TranscriptDir(),
					MaxLines:  cfg.TranscriptScrollbackLines(),
				})
				if err != nil {
					return clierrors.SessionFailed(err)
				}
				store = s
				defer func() { _ = store.Close() }()
			}

			result, err := session.Run(cmd.Context(), store, session.Options{
				SessionID: sessionID,
				Command:   args,
				Cols:      effCols,
				Rows:      effRows,
				Timeout:   dur,
			})
			if err != nil {
				return clierrors.SessionFailed(err)
			}

			if out.JSON {
				return out.PrintJSON(result)
			}

			if result.TimedOut {
				out.Warning("Session %s timed out after %s", result.SessionID, result.Duration.Round(time.Millisecond))
			} else {
				out.Success("Session %s exited %d in %s", result.SessionID, result.ExitCode, result.Duration.Round(time.Millisecond))
			}

			// Mirror the recorded command's own exit code rather than
			// cobra's usual zero-or-CLIError convention, so 'qsn run'
			// composes in shell pipelines the way the wrapped command would.
			if result.ExitCode != 0 {
				os.Exit(result.ExitCode)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&timeout, "timeout", "", "Maximum run duration, e.g. 30s (default: no timeout)")
	cmd.Flags().IntVar(&cols, "cols", 0, "PTY width in columns (default: the invoking terminal's width, or 80)")
	cmd.Flags().IntVar(&rows, "rows", 0, "PTY height in rows (default: the invoking terminal's height, or 24)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Run without recording a transcript")

	return cmd
}
