package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qsnshell/qsn/internal/ansi"
	"github.com/qsnshell/qsn/internal/config"
	"github.com/qsnshell/qsn/internal/output"
	"github.com/qsnshell/qsn/internal/qsn"
	"github.com/qsnshell/qsn/internal/transcript"
)

func newTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect recorded PTY sessions",
		Long: `List, view, and prune the transcripts recorded by 'qsn run'.

Each recorded session is stored as a sequence of timestamped output
events under the configured transcript directory (see 'qsn paths').`,
		Example: `  qsn transcript list
  qsn transcript show <session-id>
  qsn transcript prune --older-than 168h`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newTranscriptListCmd())
	cmd.AddCommand(newTranscriptShowCmd())
	cmd.AddCommand(newTranscriptPruneCmd())

	return cmd
}

func newTranscriptListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List stored transcript sessions",
		Long:    `Print every recorded session, newest first, with its start and close time.`,
		Example: `  qsn transcript list`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			dir := config.Load().TranscriptDir()

			sessions, err := transcript.ListSessions(dir)
			if err != nil {
				return fmt.Errorf("list transcript sessions: %w", err)
			}

			if out.JSON {
				return out.PrintJSON(sessions)
			}

			if len(sessions) == 0 {
				out.Muted("No transcript sessions found.")
				return nil
			}

			for _, session := range sessions {
				closed := "open"
				if session.ClosedAt != nil {
					closed = session.ClosedAt.Format(time.RFC3339)
				}

				out.Print("%s  started=%s  closed=%s\n", session.SessionID, session.StartedAt.Format(time.RFC3339), closed)
			}

			return nil
		},
	}
}

func newTranscriptShowCmd() *cobra.Command {
	var (
		search string
		follow bool
		raw    bool
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show transcript output for a session",
		Long: `Print the recorded output of one session in the order it was captured.

Every line is rendered through the QSN codec (see 'qsn encode') before
it reaches the terminal, so control bytes, raw ANSI, and invalid UTF-8
captured from the session can never smuggle escape sequences into your
terminal. Use --mode to pick the display mode and --raw to keep ANSI
escape sequences instead of stripping them before quoting. With
--follow, keep polling for new output until the process is
interrupted, the way 'tail -f' watches a growing file.`,
		Example: `  qsn transcript show 3f9c2b1a-...
  qsn transcript show --follow --raw 3f9c2b1a-...
  qsn transcript show --mode x_escape 3f9c2b1a-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			out := output.FromContext(cmd.Context())
			dir := config.Load().TranscriptDir()

			qsnMode, err := parseDisplayMode(mode)
			if err != nil {
				return err
			}

			opts := showOptions{search: search, raw: raw, mode: qsnMode}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			var lastSeq uint64

			events, err := transcript.ReadEvents(dir, sessionID)
			if err != nil {
				if !follow {
					return fmt.Errorf("read transcript events: %w", err)
				}
			} else {
				if raw {
					slog.Default().Debug("rendering transcript with --raw",
						slog.String("component", "transcript"),
						slog.Int("ansi_sequences", countSessionSequences(events)))
				}

				if search == "" {
					// No line filtering: render the whole session through
					// RenderSession in one pass instead of per-event.
					if rendered := transcript.RenderSession(events, opts.mode, opts.raw); rendered != "" {
						out.Print("%s\n", rendered)
					}
					lastSeq = maxSeq(events, lastSeq)
				} else {
					lastSeq = renderEvents(out, events, lastSeq, opts)
				}
			}

			if !follow {
				return nil
			}

			var liveOffset int64
			for {
				liveEvents, nextOffset, err := transcript.ReadLiveEventsFrom(dir, sessionID, liveOffset)
				if err != nil {
					return fmt.Errorf("read live transcript events: %w", err)
				}

				liveOffset = nextOffset
				lastSeq = renderEvents(out, liveEvents, lastSeq, opts)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(1 * time.Second):
				}
			}
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter output to lines containing this substring")
	cmd.Flags().BoolVar(&follow, "follow", false, "Follow updates as new transcript events are written")
	cmd.Flags().BoolVar(&raw, "raw", false, "Keep ANSI escape sequences instead of stripping them before quoting")
	cmd.Flags().StringVar(&mode, "mode", "utf8", "QSN display mode: utf8, u_escape, x_escape")

	return cmd
}

type showOptions struct {
	search string
	raw    bool
	mode   qsn.Mode
}

// countSessionSequences sums the ANSI escape sequences CountSequences finds
// across every event's text, used to log how much of a --raw transcript is
// escape bytes rather than the content the QSN codec goes on to quote.
func countSessionSequences(events []transcript.Event) int {
	total := 0
	for _, event := range events {
		total += ansi.CountSequences(event.Text)
	}

	return total
}

// maxSeq returns the highest Seq among events, or lastSeq if events is empty
// or none exceed it.
func maxSeq(events []transcript.Event, lastSeq uint64) uint64 {
	for _, event := range events {
		if event.Seq > lastSeq {
			lastSeq = event.Seq
		}
	}

	return lastSeq
}

// renderEvents renders events with seq greater than lastSeq through the QSN
// codec (transcript.Event.Quote) and prints them, returning the new
// high-water mark so callers can resume from where they left off when
// polling the live file. Every line crosses the codec before it reaches the
// terminal, matching the guarantee 'qsn run' makes when recording a session.
func renderEvents(out *output.Writer, events []transcript.Event, lastSeq uint64, opts showOptions) uint64 {
	for _, event := range events {
		if event.Seq <= lastSeq {
			continue
		}

		lastSeq = event.Seq

		text := event.Text
		if !opts.raw {
			text = ansi.Strip(text)
		}

		text = strings.TrimRight(text, "\n")

		if opts.search != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(opts.search)) {
			continue
		}

		quoted := transcript.Event{Text: text}.Quote(opts.mode)
		out.Print("%s\n", quoted)
	}

	return lastSeq
}

func newTranscriptPruneCmd() *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete transcript sessions older than a duration",
		Long: `Remove session directories whose start (or close, if closed) time is
older than the retention window, which defaults to transcript.retention
from configuration.`,
		Example: `  qsn transcript prune
  qsn transcript prune --older-than 168h`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()
			window := cfg.TranscriptRetention()

			if olderThan != "" {
				d, err := time.ParseDuration(olderThan)
				if err != nil {
					return fmt.Errorf("invalid duration for --older-than: %w", err)
				}

				window = d
			}

			removed, err := transcript.PruneOlderThan(cfg.TranscriptDir(), time.Now().Add(-window))
			if err != nil {
				return fmt.Errorf("prune transcript sessions: %w", err)
			}

			out.Success("Removed %d transcript session(s)", removed)

			return nil
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "Override retention window (example: 168h)")

	return cmd
}
