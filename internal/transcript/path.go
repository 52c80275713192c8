package transcript

import "github.com/qsnshell/qsn/internal/paths"

// DefaultDir returns the default directory for recorded session transcripts.
func DefaultDir() (string, error) {
	return paths.TranscriptDir()
}
