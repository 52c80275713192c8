package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qsnshell/qsn/internal/output"
	"github.com/qsnshell/qsn/internal/paths"
)

// PathsInfo holds all resolved paths for JSON output.
type PathsInfo struct {
	ConfigRoot    string `json:"config_root"`
	StateRoot     string `json:"state_root"`
	CacheRoot     string `json:"cache_root"`
	ConfigFile    string `json:"config_file"`
	LogFile       string `json:"log_file"`
	TranscriptDir string `json:"transcript_dir"`
	UpdateState   string `json:"update_state"`
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show where qsn stores files",
		Long: `Display all file and directory paths used by qsn.

Useful for debugging, scripting, and understanding where configuration,
state, and recorded-session transcripts are stored on this system.`,
		Example: `  qsn paths
  qsn paths --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			info := resolvePathsInfo()

			if out.JSON {
				return out.PrintJSON(info)
			}

			out.Print("Config root:     %s\n", info.ConfigRoot)
			out.Print("State root:      %s\n", info.StateRoot)
			out.Print("Cache root:      %s\n", info.CacheRoot)
			out.Print("\n")
			out.Print("Config file:     %s\n", info.ConfigFile)
			out.Print("Log file:        %s\n", info.LogFile)
			out.Print("Transcript dir:  %s\n", info.TranscriptDir)
			out.Print("Update state:    %s\n", info.UpdateState)

			return nil
		},
	}
}

func resolvePathsInfo() PathsInfo {
	info := PathsInfo{}

	info.ConfigRoot = resolveOrError(paths.ConfigRoot)
	info.StateRoot = resolveOrError(paths.StateRoot)
	info.CacheRoot = resolveOrError(paths.CacheRoot)
	info.LogFile = resolveOrError(paths.DefaultLogFile)
	info.TranscriptDir = resolveOrError(paths.TranscriptDir)
	info.UpdateState = resolveOrError(paths.UpdateStateFile)

	if cr := info.ConfigRoot; cr != "" {
		info.ConfigFile = cr + "/config.yaml"
	} else {
		info.ConfigFile = "<error: config root unavailable>"
	}

	return info
}

func resolveOrError(fn func() (string, error)) string {
	val, err := fn()
	if err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}

	return val
}
