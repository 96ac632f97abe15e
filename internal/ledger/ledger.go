// Package ledger implements the account operations on top of the index:
// opening and closing accounts, deposits, withdrawals, transfers, interest,
// and PIN checks.
//
// A Ledger guards its index with a single mutex, so every exported method
// runs as one atomic unit. Failed operations leave every account unchanged.
package ledger

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/acctree/internal/clock"
	"github.com/roach88/acctree/internal/eventlog"
	"github.com/roach88/acctree/internal/index"
)

// InterestBasis selects which balance the logged interest amount is
// computed from.
type InterestBasis string

const (
	// BasisPost logs newBalance * rate/100. This reproduces the amounts
	// written by earlier releases and is the default.
	BasisPost InterestBasis = "post"

	// BasisPre logs oldBalance * rate/100, the interest actually credited.
	BasisPre InterestBasis = "pre"
)

// SecretLength is the number of digits in a PIN.
const SecretLength = 4

var hundred = decimal.NewFromInt(100)

// Options configures a Ledger. Zero values select defaults.
type Options struct {
	Clock         clock.Clock
	InterestBasis InterestBasis
	Logger        *slog.Logger
}

// Account is a detached copy of one account, history newest first.
type Account struct {
	ID         int64
	HolderName string
	Balance    decimal.Decimal
	History    []eventlog.Event
}

// Ledger is the account book.
type Ledger struct {
	mu    sync.Mutex
	ix    *index.Index
	clock clock.Clock
	basis InterestBasis
	log   *slog.Logger
}

// New returns an empty ledger.
func New(opts Options) *Ledger {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem(clock.DefaultLayout, false)
	}
	if opts.InterestBasis == "" {
		opts.InterestBasis = BasisPost
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Ledger{
		ix:    index.New(),
		clock: opts.Clock,
		basis: opts.InterestBasis,
		log:   opts.Logger,
	}
}

// NormalizeName trims a holder name and converts it to NFC so that visually
// identical names compare and persist identically.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidSecret reports whether s is a well-formed PIN.
func ValidSecret(s string) bool {
	if len(s) != SecretLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Open creates an account.
func (l *Ledger) Open(id int64, name string, balance decimal.Decimal, secret string) error {
	name = NormalizeName(name)
	if name == "" {
		return ErrBadName
	}
	if balance.IsNegative() {
		return fmt.Errorf("opening balance %s: %w", balance, ErrBadAmount)
	}
	if !ValidSecret(secret) {
		return fmt.Errorf("PIN must be %d digits: %w", SecretLength, ErrBadSecret)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.ix.InsertRecord(index.Fields{ID: id, HolderName: name, Balance: balance, Secret: secret}); err != nil {
		return fmt.Errorf("account %d: %w", id, err)
	}
	l.log.Debug("account opened", "account", id, "balance", balance.String())
	return nil
}

// Close removes an account and its history.
func (l *Ledger) Close(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ix.Delete(id) {
		return fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	l.log.Debug("account closed", "account", id)
	return nil
}

// Authenticate checks secret against the stored PIN.
func (l *Ledger) Authenticate(id int64, secret string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.lookup(id)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(rec.Secret), []byte(secret)) != 1 {
		return fmt.Errorf("account %d: %w", id, ErrBadSecret)
	}
	return nil
}

// Deposit credits amount and returns the new balance.
func (l *Ledger) Deposit(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("deposit %s: %w", amount, ErrBadAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	rec.Balance = rec.Balance.Add(amount)
	rec.Log.Append(eventlog.Deposit, amount, l.clock.Now())
	l.log.Debug("deposit", "account", id, "amount", amount.String())
	return rec.Balance, nil
}

// Withdraw debits amount and returns the new balance.
func (l *Ledger) Withdraw(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("withdraw %s: %w", amount, ErrBadAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.GreaterThan(rec.Balance) {
		return decimal.Zero, fmt.Errorf("account %d: %w", id, ErrInsufficientFunds)
	}
	rec.Balance = rec.Balance.Sub(amount)
	rec.Log.Append(eventlog.Withdraw, amount, l.clock.Now())
	l.log.Debug("withdraw", "account", id, "amount", amount.String())
	return rec.Balance, nil
}

// Transfer moves amount from one account to another. Both sides are
// checked before either is changed.
func (l *Ledger) Transfer(from, to int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer %s: %w", amount, ErrBadAmount)
	}
	if from == to {
		return fmt.Errorf("account %d: %w", from, ErrSameAccount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	src, err := l.lookup(from)
	if err != nil {
		return err
	}
	dst, err := l.lookup(to)
	if err != nil {
		return err
	}
	if amount.GreaterThan(src.Balance) {
		return fmt.Errorf("account %d: %w", from, ErrInsufficientFunds)
	}

	src.Balance = src.Balance.Sub(amount)
	src.Log.Append(eventlog.TransferOut, amount, l.clock.Now())
	dst.Balance = dst.Balance.Add(amount)
	dst.Log.Append(eventlog.TransferIn, amount, l.clock.Now())
	l.log.Debug("transfer", "from", from, "to", to, "amount", amount.String())
	return nil
}

// ApplyInterest credits rate percent to every account and returns how many
// accounts were updated. Each account gets one Interest event.
func (l *Ledger) ApplyInterest(rate decimal.Decimal) (int, error) {
	if rate.IsNegative() {
		return 0, fmt.Errorf("rate %s: %w", rate, ErrBadRate)
	}
	factor := rate.Div(hundred)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	l.ix.BulkUpdate(func(r *index.Record) {
		old := r.Balance
		r.Balance = old.Mul(decimal.NewFromInt(1).Add(factor))
		basis := r.Balance
		if l.basis == BasisPre {
			basis = old
		}
		r.Log.Append(eventlog.Interest, basis.Mul(factor), l.clock.Now())
		n++
	})
	l.log.Debug("interest applied", "rate", rate.String(), "accounts", n, "basis", string(l.basis))
	return n, nil
}

// Account returns a copy of one account.
func (l *Ledger) Account(id int64) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.lookup(id)
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:         rec.ID(),
		HolderName: rec.HolderName,
		Balance:    rec.Balance,
		History:    slices.Collect(rec.Log.All()),
	}, nil
}

// List returns every account summary in ascending account number order.
func (l *Ledger) List() []index.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]index.Summary, 0, l.ix.Len())
	for s := range l.ix.InOrder() {
		out = append(out, s)
	}
	return out
}

// Total returns the sum of all balances.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ix.TotalBalance()
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ix.Len()
}

// Verify checks the index invariants.
func (l *Ledger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ix.Check()
}

// Export returns the flat persistence tuples.
func (l *Ledger) Export() []index.Tuple {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Collect(l.ix.ExportAll())
}

// Import inserts tuples produced by Export or a store backend.
func (l *Ledger) Import(tuples []index.Tuple, opts index.ImportOptions) index.ImportStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats := l.ix.ImportAll(slices.Values(tuples), opts)
	if stats.Duplicates > 0 {
		l.log.Warn("duplicate accounts skipped on import", "count", stats.Duplicates)
	}
	l.log.Debug("import", "inserted", stats.Inserted, "events", stats.Events, "dropped", stats.Dropped)
	return stats
}

func (l *Ledger) lookup(id int64) (*index.Record, error) {
	rec, ok := l.ix.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	return rec, nil
}
