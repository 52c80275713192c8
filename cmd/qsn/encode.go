package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/qsnshell/qsn/internal/config"
	clierrors "github.com/qsnshell/qsn/internal/errors"
	"github.com/qsnshell/qsn/internal/output"
	"github.com/qsnshell/qsn/internal/qsn"
)

func newEncodeCmd() *cobra.Command {
	var (
		mode      string
		shell     bool
		mustQuote bool
	)

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Quote bytes as a QSN literal",
		Long: `Read bytes from a file (or stdin, if no file or '-' is given) and print
them as a single Quoted String Notation literal, escaping control bytes
and invalid UTF-8 so the result is always safe to print or embed in a
log line.`,
		Example: `  qsn encode input.bin
  printf '\x01\x02' | qsn encode
  qsn encode --shell --mode x_escape config.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if !cmd.Flags().Changed("mode") {
				mode = config.Load().EncodeMode()
			}

			qsnMode, err := parseDisplayMode(mode)
			if err != nil {
				return err
			}

			data, err := readEncodeInput(cmd, args)
			if err != nil {
				return err
			}

			var result string

			switch {
			case shell:
				result = qsn.MaybeShellEncode(data, qsnMode, mustQuote)
			case mustQuote:
				result = qsn.Encode(data, qsnMode)
			default:
				result = qsn.MaybeEncode(data, qsnMode)
			}

			out.Print("%s\n", result)

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "utf8", "Display mode: utf8, u_escape, x_escape")
	cmd.Flags().BoolVar(&shell, "shell", false, "Quote the way an interactive shell echoes a word back")
	cmd.Flags().BoolVar(&mustQuote, "must-quote", false, "Always wrap the result in quotes, even for plain input")

	return cmd
}

func parseDisplayMode(mode string) (qsn.Mode, error) {
	switch mode {
	case "utf8", "":
		return qsn.UTF8, nil
	case "u_escape":
		return qsn.UEscape, nil
	case "x_escape":
		return qsn.XEscape, nil
	default:
		return 0, clierrors.InvalidMode(mode)
	}
}

func readEncodeInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		stat, statErr := os.Stdin.Stat()
		if statErr == nil && (stat.Mode()&os.ModeCharDevice) != 0 && len(args) == 0 {
			return nil, clierrors.NoInput()
		}

		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}

		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, err
	}

	return data, nil
}
