package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataPath   string // overrides storage.path and ACCTREE_DATA
	Backend    string // overrides storage.backend
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the acctree CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "acctree",
		Short: "acctree - account ledger on an AVL index",
		Long: `A small bank ledger. Accounts are kept in a height-balanced tree keyed
by account number, each with a newest-first transaction history.

Every command loads the data file, applies one operation, and saves the
file again when the operation changed anything.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "acctree.yaml", "path to YAML config (missing file means defaults)")
	cmd.PersistentFlags().StringVar(&opts.DataPath, "data", "", "data file path (overrides config and $ACCTREE_DATA)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (text|sqlite)")

	// Account commands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewWithdrawCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewCloseCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	// Manager commands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTotalCommand(opts))
	cmd.AddCommand(NewInterestCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	cmd.AddCommand(NewScriptCommand(opts))

	return cmd, opts
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported in the selected format: JSON on stdout, text on
// stderr. Errors raised by cobra itself (unknown command, wrong argument
// count, bad flag) are command errors.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := ExitCommandError
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Silent {
			return code
		}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Writer = stdout
	} else {
		f.Format = "text"
	}
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return code
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
