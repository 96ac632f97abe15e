package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/acctree/internal/eventlog"
	"github.com/roach88/acctree/internal/ledger"
)

// AccountOptions holds flags for commands that act on one account.
type AccountOptions struct {
	*RootOptions
	PIN string
}

// AccountView is the JSON form of an account.
type AccountView struct {
	ID         int64       `json:"account"`
	HolderName string      `json:"name"`
	Balance    string      `json:"balance"`
	History    []EventView `json:"history,omitempty"`
}

// EventView is the JSON form of one history entry.
type EventView struct {
	Timestamp string `json:"timestamp"`
	Kind      string `json:"type"`
	Amount    string `json:"amount"`
}

func eventView(e eventlog.Event) EventView {
	return EventView{Timestamp: e.Timestamp, Kind: e.Kind.String(), Amount: money(e.Amount)}
}

func accountCommand(opts *AccountOptions, use, short, long string, nargs int, needPIN bool,
	run func(s *session, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts.RootOptions, cmd, func(s *session) error {
				return run(s, args)
			})
		},
	}
	if needPIN {
		cmd.Flags().StringVar(&opts.PIN, "pin", "", "4-digit account PIN (required)")
		_ = cmd.MarkFlagRequired("pin")
	}
	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}
	return accountCommand(opts, "create <account> <name> <balance>", "Open a new account",
		`Open a new account with an opening balance and a 4-digit PIN.

Example:
  acctree create 1001 "Alice Smith" 250.00 --pin 1234`,
		3, true, func(s *session, args []string) error {
			id, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			balance, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			if err := s.ledger.Open(id, args[1], balance, opts.PIN); err != nil {
				return refused("create", err)
			}
			s.dirty = true
			return s.out.Success(AccountView{ID: id, HolderName: ledger.NormalizeName(args[1]), Balance: money(balance)},
				func(w io.Writer) { fmt.Fprintln(w, "Account created successfully!") })
		})
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}
	return accountCommand(opts, "deposit <account> <amount>", "Deposit into an account",
		`Credit an account after checking its PIN.

Example:
  acctree deposit 1001 50 --pin 1234`,
		2, true, func(s *session, args []string) error {
			return s.moveMoney(opts.PIN, args, "deposit", s.ledger.Deposit, "Deposited successfully!")
		})
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}
	return accountCommand(opts, "withdraw <account> <amount>", "Withdraw from an account",
		`Debit an account after checking its PIN. The balance may not go below zero.

Example:
  acctree withdraw 1001 20 --pin 1234`,
		2, true, func(s *session, args []string) error {
			return s.moveMoney(opts.PIN, args, "withdraw", s.ledger.Withdraw, "Withdrawn successfully!")
		})
}

func (s *session) moveMoney(pin string, args []string, op string,
	apply func(int64, decimal.Decimal) (decimal.Decimal, error), done string) error {
	id, err := parseAccountNumber(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	if err := s.ledger.Authenticate(id, pin); err != nil {
		return refused(op, err)
	}
	balance, err := apply(id, amount)
	if err != nil {
		return refused(op, err)
	}
	s.dirty = true
	return s.out.Success(map[string]any{"account": id, "amount": money(amount), "balance": money(balance)},
		func(w io.Writer) { fmt.Fprintln(w, done) })
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}
	return accountCommand(opts, "transfer <from> <to> <amount>", "Transfer between accounts",
		`Move money from one account to another. The PIN is the sender's.

Example:
  acctree transfer 1001 1002 75.50 --pin 1234`,
		3, true, func(s *session, args []string) error {
			from, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			to, err := parseAccountNumber(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			if err := s.ledger.Authenticate(from, opts.PIN); err != nil {
				return refused("transfer", err)
			}
			if err := s.ledger.Transfer(from, to, amount); err != nil {
				return refused("transfer", err)
			}
			s.dirty = true
			return s.out.Success(map[string]any{"from": from, "to": to, "amount": money(amount)},
				func(w io.Writer) { fmt.Fprintln(w, "Transfer successful!") })
		})
}

// NewCloseCommand creates the close command.
func NewCloseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}
	return accountCommand(opts, "close <account>", "Close an account",
		`Remove an account and its history.

Example:
  acctree close 1001`,
		1, false, func(s *session, args []string) error {
			id, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			if err := s.ledger.Close(id); err != nil {
				return refused("close", err)
			}
			s.dirty = true
			return s.out.Success(map[string]any{"account": id},
				func(w io.Writer) { fmt.Fprintln(w, "Account deleted successfully!") })
		})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}
	return accountCommand(opts, "show <account>", "Show balance and history",
		`Show one account's balance and its transactions, newest first.

Example:
  acctree show 1001 --pin 1234`,
		1, true, func(s *session, args []string) error {
			id, err := parseAccountNumber(args[0])
			if err != nil {
				return err
			}
			if err := s.ledger.Authenticate(id, opts.PIN); err != nil {
				return refused("show", err)
			}
			a, err := s.ledger.Account(id)
			if err != nil {
				return refused("show", err)
			}

			view := AccountView{ID: a.ID, HolderName: a.HolderName, Balance: money(a.Balance)}
			for _, e := range a.History {
				view.History = append(view.History, eventView(e))
			}
			return s.out.Success(view, func(w io.Writer) {
				fmt.Fprintf(w, "Account Number: %d\n", a.ID)
				fmt.Fprintf(w, "Name: %s\n", a.HolderName)
				fmt.Fprintf(w, "Balance: %s\n", money(a.Balance))
				fmt.Fprintln(w, "Transaction History:")
				if len(view.History) == 0 {
					fmt.Fprintln(w, "No transactions.")
				}
				for _, e := range view.History {
					fmt.Fprintf(w, "%s - %s %s\n", e.Timestamp, e.Kind, e.Amount)
				}
			})
		})
}
