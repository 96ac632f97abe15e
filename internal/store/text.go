package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/roach88/acctree/internal/eventlog"
	"github.com/roach88/acctree/internal/index"
)

// Encode writes tuples in the flat text format.
func Encode(w io.Writer, tuples []index.Tuple) error {
	cw := csv.NewWriter(w)
	for i, t := range tuples {
		var row []string
		switch t.Kind {
		case index.RecordTuple:
			f := t.Fields
			row = []string{strconv.FormatInt(f.ID, 10), f.HolderName, f.Balance.String(), f.Secret}
		case index.EventTuple:
			e := t.Event
			row = []string{e.Timestamp, e.Kind.String(), e.Amount.String()}
		default:
			return fmt.Errorf("encode tuple %d: unknown kind %d", i, t.Kind)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("encode tuple %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads the flat text format. Blank lines are ignored.
func Decode(r io.Reader) ([]index.Tuple, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []index.Tuple
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &FormatError{Line: pe.StartLine, Message: pe.Err.Error()}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		t, err := parseRow(row)
		if err != nil {
			return nil, &FormatError{Line: line, Message: err.Error()}
		}
		out = append(out, t)
	}
}

func parseRow(row []string) (index.Tuple, error) {
	switch len(row) {
	case 4:
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return index.Tuple{}, fmt.Errorf("account number %q: %w", row[0], err)
		}
		bal, err := decimal.NewFromString(row[2])
		if err != nil {
			return index.Tuple{}, fmt.Errorf("balance %q: %w", row[2], err)
		}
		return index.Tuple{
			Kind:   index.RecordTuple,
			Fields: index.Fields{ID: id, HolderName: row[1], Balance: bal, Secret: row[3]},
		}, nil
	case 3:
		kind, err := eventlog.ParseKind(row[1])
		if err != nil {
			return index.Tuple{}, err
		}
		amt, err := decimal.NewFromString(row[2])
		if err != nil {
			return index.Tuple{}, fmt.Errorf("amount %q: %w", row[2], err)
		}
		return index.Tuple{
			Kind:  index.EventTuple,
			Event: eventlog.Event{Kind: kind, Amount: amt, Timestamp: row[0]},
		}, nil
	default:
		return index.Tuple{}, fmt.Errorf("expected 4 account fields or 3 history fields, got %d", len(row))
	}
}

// TextFile stores the ledger in one flat text file.
type TextFile struct {
	path string
	log  *slog.Logger
}

// NewTextFile returns a backend for path. The file is not touched until
// Load or Save.
func NewTextFile(path string, logger *slog.Logger) *TextFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextFile{path: path, log: logger}
}

// Path returns the target file.
func (f *TextFile) Path() string {
	return f.path
}

// Load reads the file. A missing file is an empty ledger.
func (f *TextFile) Load(ctx context.Context) ([]index.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.log.Debug("no data file, starting empty", "path", f.path)
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "open", Path: f.path, Err: err}
	}
	defer file.Close()

	tuples, err := Decode(file)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
		return nil, &IOError{Op: "read", Path: f.path, Err: err}
	}
	f.log.Debug("loaded", "path", f.path, "tuples", len(tuples))
	return tuples, nil
}

// Save writes path.tmp and renames it over path.
func (f *TextFile) Save(ctx context.Context, tuples []index.Tuple) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return &IOError{Op: "create", Path: tmp, Err: err}
	}

	if err := Encode(file, tuples); err != nil {
		file.Close()
		os.Remove(tmp)
		return &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return &IOError{Op: "sync", Path: tmp, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return &IOError{Op: "close", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return &IOError{Op: "rename", Path: f.path, Err: err}
	}
	f.log.Debug("saved", "path", f.path, "tuples", len(tuples))
	return nil
}

// Close implements Backend. TextFile holds no open resources.
func (f *TextFile) Close() error {
	return nil
}
