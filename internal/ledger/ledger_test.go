package ledger

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acctree/internal/clock"
	"github.com/roach88/acctree/internal/eventlog"
	"github.com/roach88/acctree/internal/index"
)

const ts = "2024-05-01 12:00:00"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLedger(t *testing.T, opts Options) *Ledger {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = clock.Fixed(ts)
	}
	return New(opts)
}

func open(t *testing.T, l *Ledger, id int64, balance string) {
	t.Helper()
	require.NoError(t, l.Open(id, "Holder", dec(balance), "1234"))
}

func balance(t *testing.T, l *Ledger, id int64) decimal.Decimal {
	t.Helper()
	a, err := l.Account(id)
	require.NoError(t, err)
	return a.Balance
}

func TestOpen_Validation(t *testing.T) {
	l := newLedger(t, Options{})

	tests := []struct {
		name    string
		holder  string
		balance string
		secret  string
		want    error
	}{
		{"negative balance", "A", "-1", "1234", ErrBadAmount},
		{"blank name", "   ", "1", "1234", ErrBadName},
		{"short pin", "A", "1", "12", ErrBadSecret},
		{"non-digit pin", "A", "1", "12a4", ErrBadSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Open(1, tt.holder, dec(tt.balance), tt.secret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, l.Len())
}

func TestOpen_Duplicate(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "100")

	err := l.Open(1, "Other", dec("5"), "9999")
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, l.Len())
	assert.True(t, balance(t, l, 1).Equal(dec("100")))
}

func TestOpen_NormalizesName(t *testing.T) {
	l := newLedger(t, Options{})
	// "e" + combining acute accent composes to U+00E9.
	require.NoError(t, l.Open(1, "  Ame\u0301lie ", dec("0"), "1234"))

	a, err := l.Account(1)
	require.NoError(t, err)
	assert.Equal(t, "Am\u00e9lie", a.HolderName)
}

func TestClose(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "1")
	open(t, l, 2, "2")

	require.NoError(t, l.Close(1))
	assert.ErrorIs(t, l.Close(1), ErrNotFound)
	_, err := l.Account(1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, l.Len())
	assert.NoError(t, l.Verify())
}

func TestAuthenticate(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "1")

	assert.NoError(t, l.Authenticate(1, "1234"))
	assert.ErrorIs(t, l.Authenticate(1, "4321"), ErrBadSecret)
	assert.ErrorIs(t, l.Authenticate(2, "1234"), ErrNotFound)
}

func TestDepositWithdraw(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "100")

	got, err := l.Deposit(1, dec("50"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("150")))

	got, err = l.Withdraw(1, dec("30.25"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("119.75")))

	_, err = l.Deposit(1, dec("0"))
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = l.Withdraw(1, dec("-1"))
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = l.Withdraw(1, dec("1000"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = l.Deposit(9, dec("1"))
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := l.Account(1)
	require.NoError(t, err)
	require.Len(t, a.History, 2)
	assert.Equal(t, eventlog.Withdraw, a.History[0].Kind)
	assert.Equal(t, eventlog.Deposit, a.History[1].Kind)
	assert.Equal(t, ts, a.History[0].Timestamp)
}

func TestWithdraw_ExactBalanceAllowed(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "10")

	got, err := l.Withdraw(1, dec("10"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestTransfer(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "1000")
	open(t, l, 2, "500")

	require.NoError(t, l.Transfer(1, 2, dec("300")))
	assert.True(t, balance(t, l, 1).Equal(dec("700")))
	assert.True(t, balance(t, l, 2).Equal(dec("800")))

	from, _ := l.Account(1)
	to, _ := l.Account(2)
	assert.Equal(t, eventlog.TransferOut, from.History[0].Kind)
	assert.Equal(t, eventlog.TransferIn, to.History[0].Kind)
}

func TestTransfer_FailuresLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		from, to int64
		amount   string
		want     error
	}{
		{"same account", 1, 1, "1", ErrSameAccount},
		{"bad amount", 1, 2, "0", ErrBadAmount},
		{"missing source", 9, 2, "1", ErrNotFound},
		{"missing destination", 1, 9, "1", ErrNotFound},
		{"insufficient", 1, 2, "1000.01", ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, Options{})
			open(t, l, 1, "1000")
			open(t, l, 2, "500")

			assert.ErrorIs(t, l.Transfer(tt.from, tt.to, dec(tt.amount)), tt.want)
			assert.True(t, balance(t, l, 1).Equal(dec("1000")))
			assert.True(t, balance(t, l, 2).Equal(dec("500")))
			a, _ := l.Account(1)
			assert.Empty(t, a.History)
		})
	}
}

func TestApplyInterest(t *testing.T) {
	tests := []struct {
		name   string
		basis  InterestBasis
		logged string
	}{
		{"default reproduces post-update amount", "", "11"},
		{"post", BasisPost, "11"},
		{"pre", BasisPre, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, Options{InterestBasis: tt.basis})
			open(t, l, 1, "100.0")

			n, err := l.ApplyInterest(dec("10"))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			a, _ := l.Account(1)
			assert.True(t, a.Balance.Equal(dec("110")), "balance %s", a.Balance)
			require.Len(t, a.History, 1)
			assert.Equal(t, eventlog.Interest, a.History[0].Kind)
			assert.True(t, a.History[0].Amount.Equal(dec(tt.logged)), "logged %s", a.History[0].Amount)
		})
	}
}

func TestApplyInterest_AllAccounts(t *testing.T) {
	l := newLedger(t, Options{})
	for id := int64(1); id <= 7; id++ {
		open(t, l, id, "100")
	}

	n, err := l.ApplyInterest(dec("5"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.True(t, l.Total().Equal(dec("735")))

	_, err = l.ApplyInterest(dec("-1"))
	assert.ErrorIs(t, err, ErrBadRate)
}

func TestTotalAndList(t *testing.T) {
	l := newLedger(t, Options{})
	assert.True(t, l.Total().IsZero())

	require.NoError(t, l.Open(8, "C", dec("50.25"), "1111"))
	require.NoError(t, l.Open(3, "A", dec("100.0"), "2222"))
	require.NoError(t, l.Open(5, "B", dec("200.5"), "3333"))

	assert.True(t, l.Total().Equal(dec("350.75")))

	list := l.List()
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 5, 8}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "B", list[1].HolderName)
}

func TestExportImport(t *testing.T) {
	src := newLedger(t, Options{})
	open(t, src, 2, "20")
	open(t, src, 1, "10")
	_, err := src.Deposit(1, dec("5"))
	require.NoError(t, err)

	tuples := src.Export()
	require.Len(t, tuples, 3)

	dst := newLedger(t, Options{})
	stats := dst.Import(tuples, index.ImportOptions{RestoreHistory: true})
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, tuples, dst.Export())
	assert.NoError(t, dst.Authenticate(1, "1234"))
}

func TestConcurrentTransfersPreserveTotal(t *testing.T) {
	l := newLedger(t, Options{})
	open(t, l, 1, "1000")
	open(t, l, 2, "1000")

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Transfer(1, 2, dec("1")))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Transfer(2, 1, dec("1")))
		}()
	}
	wg.Wait()

	assert.True(t, l.Total().Equal(dec("2000")))
	a, _ := l.Account(1)
	assert.Len(t, a.History, 2*n)
}
