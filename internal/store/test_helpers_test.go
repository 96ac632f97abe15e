package store

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/roach88/acctree/internal/eventlog"
	"github.com/roach88/acctree/internal/index"
)

// createTestSQLite opens a fresh database in a temp dir.
func createTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func account(id int64, name, balance, secret string) index.Tuple {
	return index.Tuple{
		Kind: index.RecordTuple,
		Fields: index.Fields{
			ID:         id,
			HolderName: name,
			Balance:    decimal.RequireFromString(balance),
			Secret:     secret,
		},
	}
}

func event(ts string, kind eventlog.Kind, amount string) index.Tuple {
	return index.Tuple{
		Kind:  index.EventTuple,
		Event: eventlog.Event{Kind: kind, Amount: decimal.RequireFromString(amount), Timestamp: ts},
	}
}

// sampleTuples is a two-account ledger; Alice has two history entries.
func sampleTuples() []index.Tuple {
	return []index.Tuple{
		account(1001, "Alice", "150.5", "1234"),
		event("2024-01-02 09:30:00", eventlog.Withdraw, "20"),
		event("2024-01-01 10:00:00", eventlog.Deposit, "70.5"),
		account(1002, "Bob, Jr.", "42", "0007"),
	}
}

// equalTuples compares tuples by value; decimals compare numerically.
func equalTuples(t *testing.T, want, got []index.Tuple) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("got %d tuples, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.Kind != g.Kind {
			t.Fatalf("tuple %d: kind %d, want %d", i, g.Kind, w.Kind)
		}
		switch w.Kind {
		case index.RecordTuple:
			if w.Fields.ID != g.Fields.ID || w.Fields.HolderName != g.Fields.HolderName ||
				w.Fields.Secret != g.Fields.Secret || !w.Fields.Balance.Equal(g.Fields.Balance) {
				t.Errorf("tuple %d: got %+v, want %+v", i, g.Fields, w.Fields)
			}
		case index.EventTuple:
			if w.Event.Kind != g.Event.Kind || w.Event.Timestamp != g.Event.Timestamp ||
				!w.Event.Amount.Equal(g.Event.Amount) {
				t.Errorf("tuple %d: got %+v, want %+v", i, g.Event, w.Event)
			}
		}
	}
}
