package scenario

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/acctree/internal/clock"
	"github.com/roach88/acctree/internal/ledger"
	"github.com/roach88/acctree/internal/store"
)

// StepOutcome records what one step did.
type StepOutcome struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	Code  string `json:"code"` // "ok" or a ledger error code
}

// Result is the outcome of Run.
type Result struct {
	Pass     bool          `json:"pass"`
	Errors   []string      `json:"errors,omitempty"`
	Outcomes []StepOutcome `json:"outcomes"`

	// Export is the final ledger in the flat text format.
	Export []byte `json:"-"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes s against a fresh ledger.
func Run(s *Scenario) (*Result, error) {
	start := DefaultStart
	if s.Clock.Start != "" {
		t, err := time.Parse(time.RFC3339, s.Clock.Start)
		if err != nil {
			return nil, fmt.Errorf("clock.start: %w", err)
		}
		start = t
	}
	step := s.Clock.Step
	if step == 0 {
		step = time.Second
	}

	l := ledger.New(ledger.Options{
		Clock:         clock.NewStep(start.UTC(), step, clock.DefaultLayout),
		InterestBasis: s.InterestBasis,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	res := &Result{Pass: true}
	for i, st := range s.Steps {
		err := apply(l, st)
		code := ledger.ErrorCode(err)
		if err != nil && code == "" {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, st.Op, err)
		}
		if code == "" {
			code = "ok"
		}
		res.Outcomes = append(res.Outcomes, StepOutcome{Index: i, Op: st.Op, Code: code})

		want := st.ExpectError
		if want == "" {
			want = "ok"
		}
		if code != want {
			res.addError("steps[%d] %s: got %s, want %s", i, st.Op, code, want)
		}
	}

	if s.Expect != nil {
		checkExpect(l, s.Expect, res)
	}
	if err := l.Verify(); err != nil {
		res.addError("index: %v", err)
	}

	var buf bytes.Buffer
	if err := store.Encode(&buf, l.Export()); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	res.Export = buf.Bytes()
	return res, nil
}

func apply(l *ledger.Ledger, st Step) error {
	switch st.Op {
	case OpOpen:
		return l.Open(st.ID, st.Name, decimal.RequireFromString(st.Amount), st.PIN)
	case OpClose:
		return l.Close(st.ID)
	case OpAuth:
		return l.Authenticate(st.ID, st.PIN)
	case OpDeposit:
		_, err := l.Deposit(st.ID, decimal.RequireFromString(st.Amount))
		return err
	case OpWithdraw:
		_, err := l.Withdraw(st.ID, decimal.RequireFromString(st.Amount))
		return err
	case OpTransfer:
		return l.Transfer(st.ID, st.To, decimal.RequireFromString(st.Amount))
	case OpInterest:
		_, err := l.ApplyInterest(decimal.RequireFromString(st.Rate))
		return err
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
}

func checkExpect(l *ledger.Ledger, e *Expect, res *Result) {
	if e.Count != nil && l.Len() != *e.Count {
		res.addError("expect.count: got %d, want %d", l.Len(), *e.Count)
	}
	if e.Total != "" {
		want := decimal.RequireFromString(e.Total)
		if got := l.Total(); !got.Equal(want) {
			res.addError("expect.total: got %s, want %s", got, want)
		}
	}
	if e.Order != nil {
		var got []int64
		for _, s := range l.List() {
			got = append(got, s.ID)
		}
		if !slices.Equal(got, e.Order) {
			res.addError("expect.order: got %v, want %v", got, e.Order)
		}
	}

	ids := make([]int64, 0, len(e.Balances))
	for id := range e.Balances {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		want := decimal.RequireFromString(e.Balances[id])
		a, err := l.Account(id)
		if err != nil {
			res.addError("expect.balances[%d]: %v", id, err)
			continue
		}
		if !a.Balance.Equal(want) {
			res.addError("expect.balances[%d]: got %s, want %s", id, a.Balance, want)
		}
	}
}
