package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/acctree/internal/store"
)

func managerCommand(opts *RootOptions, use, short, long string, nargs int,
	run func(s *session, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, cmd, func(s *session) error {
				return run(s, args)
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return managerCommand(opts, "list", "List all accounts",
		`List every account in ascending account number order.`,
		0, func(s *session, _ []string) error {
			accounts := s.ledger.List()
			views := make([]AccountView, 0, len(accounts))
			for _, a := range accounts {
				views = append(views, AccountView{ID: a.ID, HolderName: a.HolderName, Balance: money(a.Balance)})
			}
			return s.out.Success(views, func(w io.Writer) {
				fmt.Fprintln(w, "Account Number\tName\t\tBalance")
				fmt.Fprintln(w, "----------------------------------------")
				for _, v := range views {
					fmt.Fprintf(w, "%d\t%s\t%s\n", v.ID, v.HolderName, v.Balance)
				}
			})
		})
}

// NewTotalCommand creates the total command.
func NewTotalCommand(opts *RootOptions) *cobra.Command {
	return managerCommand(opts, "total", "Show total funds",
		`Show the sum of all account balances.`,
		0, func(s *session, _ []string) error {
			total := money(s.ledger.Total())
			return s.out.Success(map[string]any{"total": total, "accounts": s.ledger.Len()},
				func(w io.Writer) { fmt.Fprintf(w, "Total funds in the bank: Rs. %s\n", total) })
		})
}

// NewInterestCommand creates the interest command.
func NewInterestCommand(opts *RootOptions) *cobra.Command {
	return managerCommand(opts, "interest <rate>", "Apply interest to every account",
		`Credit rate percent interest to every account. Each account records one
Interest entry in its history.

Example:
  acctree interest 2.5`,
		1, func(s *session, args []string) error {
			rate, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			n, err := s.ledger.ApplyInterest(rate)
			if err != nil {
				return refused("interest", err)
			}
			s.dirty = n > 0
			return s.out.Success(map[string]any{"rate": rate.String(), "accounts": n},
				func(w io.Writer) { fmt.Fprintln(w, "Interest applied successfully!") })
		})
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	return managerCommand(opts, "verify", "Check index invariants",
		`Load the data file and check the ordering and balance invariants of the
account index.

Exit codes:
  0 - Index is consistent
  1 - An invariant is violated
  2 - Command error (unreadable config or data file)`,
		0, func(s *session, _ []string) error {
			if err := s.ledger.Verify(); err != nil {
				return WrapExitError(ExitFailure, "index check failed", err)
			}
			n := s.ledger.Len()
			return s.out.Success(map[string]any{"accounts": n, "ok": true},
				func(w io.Writer) { fmt.Fprintf(w, "✓ index consistent (%d accounts)\n", n) })
		})
}

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	return managerCommand(opts, "export", "Write all accounts in the text format",
		`Write every account and its history to stdout in the flat text format,
whatever the configured backend. Useful for moving data between backends:

  acctree --backend sqlite --data bank.db export > accounts.txt`,
		0, func(s *session, _ []string) error {
			var buf bytes.Buffer
			if err := store.Encode(&buf, s.ledger.Export()); err != nil {
				return WrapExitError(ExitCommandError, "failed to encode accounts", err)
			}
			return s.out.Success(map[string]any{"export": buf.String()},
				func(w io.Writer) { _, _ = w.Write(buf.Bytes()) })
		})
}
