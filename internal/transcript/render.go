package transcript

import (
	"strings"

	"github.com/qsnshell/qsn/internal/ansi"
	"github.com/qsnshell/qsn/internal/qsn"
)

// Quote renders the event's text through the QSN codec so that control
// bytes, partial escape sequences, and invalid UTF-8 captured from a raw
// PTY stream can be displayed or logged without corrupting the
// surrounding terminal or log line.
func (e Event) Quote(mode qsn.Mode) string {
	return qsn.Encode([]byte(e.Text), mode)
}

// RenderSession renders a full list of transcript events as a sequence of
// QSN-quoted lines, one per event, in the order they were recorded. raw
// controls whether ANSI escape sequences in the event text are stripped
// before quoting; stripping them first keeps cursor-movement and color
// codes from dominating the quoted output.
func RenderSession(events []Event, mode qsn.Mode, raw bool) string {
	var b strings.Builder

	for i, ev := range events {
		text := ev.Text
		if !raw {
			text = ansi.Strip(text)
		}

		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(qsn.Encode([]byte(text), mode))
	}

	return b.String()
}
