package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/roach88/acctree/internal/eventlog"
	"github.com/roach88/acctree/internal/index"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - accounts, events, snapshots
const currentSchemaVersion = 1

// Snapshot describes one completed Save.
type Snapshot struct {
	ID       string
	Seq      int64
	Accounts int
	Events   int
}

// SQLite stores the ledger in a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// OpenSQLite creates or opens the database at path and applies pragmas and
// schema. It is safe to call repeatedly on the same path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &IOError{Op: "connect", Path: path, Err: err}
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &IOError{Op: "configure", Path: path, Err: err}
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, &IOError{Op: "migrate", Path: path, Err: err}
	}
	logger.Debug("database ready", "path", path)
	return &SQLite{db: db, path: path, log: logger}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Save replaces the stored ledger with tuples and records a snapshot row.
func (s *SQLite) Save(ctx context.Context, tuples []index.Tuple) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &IOError{Op: "begin", Path: s.path, Err: err}
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return &IOError{Op: "clear events", Path: s.path, Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return &IOError{Op: "clear accounts", Path: s.path, Err: err}
	}

	accountStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accounts (id, holder_name, balance, secret) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return &IOError{Op: "prepare", Path: s.path, Err: err}
	}
	defer accountStmt.Close()
	eventStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (account_id, pos, ts, kind, amount) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &IOError{Op: "prepare", Path: s.path, Err: err}
	}
	defer eventStmt.Close()

	var (
		current  int64
		have     bool
		pos      int
		accounts int
		events   int
	)
	for i, t := range tuples {
		switch t.Kind {
		case index.RecordTuple:
			f := t.Fields
			if _, err := accountStmt.ExecContext(ctx, f.ID, f.HolderName, f.Balance.String(), f.Secret); err != nil {
				return &IOError{Op: "insert account", Path: s.path, Err: err}
			}
			current, have, pos = f.ID, true, 0
			accounts++
		case index.EventTuple:
			if !have {
				return fmt.Errorf("save tuple %d: history before any account", i)
			}
			e := t.Event
			if _, err := eventStmt.ExecContext(ctx, current, pos, e.Timestamp, e.Kind.String(), e.Amount.String()); err != nil {
				return &IOError{Op: "insert event", Path: s.path, Err: err}
			}
			pos++
			events++
		default:
			return fmt.Errorf("save tuple %d: unknown kind %d", i, t.Kind)
		}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots`).Scan(&seq); err != nil {
		return &IOError{Op: "next seq", Path: s.path, Err: err}
	}
	id := uuid.Must(uuid.NewV7()).String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, seq, accounts, events) VALUES (?, ?, ?, ?)
	`, id, seq, accounts, events); err != nil {
		return &IOError{Op: "insert snapshot", Path: s.path, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &IOError{Op: "commit", Path: s.path, Err: err}
	}
	s.log.Debug("saved", "path", s.path, "snapshot", id, "seq", seq, "accounts", accounts, "events", events)
	return nil
}

type storedEvent struct {
	accountID int64
	event     eventlog.Event
}

// Load returns the stored tuples: accounts ascending, each followed by its
// history newest first.
func (s *SQLite) Load(ctx context.Context) ([]index.Tuple, error) {
	evRows, err := s.db.QueryContext(ctx, `
		SELECT account_id, ts, kind, amount FROM events ORDER BY account_id ASC, pos ASC
	`)
	if err != nil {
		return nil, &IOError{Op: "query events", Path: s.path, Err: err}
	}
	history := map[int64][]eventlog.Event{}
	for evRows.Next() {
		var (
			se           storedEvent
			kind, amount string
		)
		if err := evRows.Scan(&se.accountID, &se.event.Timestamp, &kind, &amount); err != nil {
			evRows.Close()
			return nil, &IOError{Op: "scan event", Path: s.path, Err: err}
		}
		if se.event.Kind, err = eventlog.ParseKind(kind); err != nil {
			evRows.Close()
			return nil, fmt.Errorf("account %d: %w", se.accountID, err)
		}
		if se.event.Amount, err = decimal.NewFromString(amount); err != nil {
			evRows.Close()
			return nil, fmt.Errorf("account %d: amount %q: %w", se.accountID, amount, err)
		}
		history[se.accountID] = append(history[se.accountID], se.event)
	}
	evRows.Close()
	if err := evRows.Err(); err != nil {
		return nil, &IOError{Op: "read events", Path: s.path, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, holder_name, balance, secret FROM accounts ORDER BY id ASC
	`)
	if err != nil {
		return nil, &IOError{Op: "query accounts", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []index.Tuple
	for rows.Next() {
		var (
			f   index.Fields
			bal string
		)
		if err := rows.Scan(&f.ID, &f.HolderName, &bal, &f.Secret); err != nil {
			return nil, &IOError{Op: "scan account", Path: s.path, Err: err}
		}
		if f.Balance, err = decimal.NewFromString(bal); err != nil {
			return nil, fmt.Errorf("account %d: balance %q: %w", f.ID, bal, err)
		}
		out = append(out, index.Tuple{Kind: index.RecordTuple, Fields: f})
		for _, e := range history[f.ID] {
			out = append(out, index.Tuple{Kind: index.EventTuple, Event: e})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "read accounts", Path: s.path, Err: err}
	}
	s.log.Debug("loaded", "path", s.path, "tuples", len(out))
	return out, nil
}

// LastSnapshot returns the most recent Save, if any.
func (s *SQLite) LastSnapshot(ctx context.Context) (Snapshot, bool, error) {
	var snap Snapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, accounts, events FROM snapshots ORDER BY seq DESC LIMIT 1
	`).Scan(&snap.ID, &snap.Seq, &snap.Accounts, &snap.Events)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, &IOError{Op: "query snapshot", Path: s.path, Err: err}
	}
	return snap, true, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
