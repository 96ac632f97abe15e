package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acctree/internal/index"
)

func TestEncode_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTuples()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "sample_export", buf.Bytes())
}

func TestDecode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTuples()))

	got, err := Decode(&buf)
	require.NoError(t, err)
	equalTuples(t, sampleTuples(), got)
}

func TestDecode_Empty(t *testing.T) {
	got, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_SkipsBlankLines(t *testing.T) {
	got, err := Decode(strings.NewReader("1,A,1,1234\n\n2,B,2,5678\n"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"bad account number", "x,A,1,1234\n", 1},
		{"bad balance", "1,A,lots,1234\n", 1},
		{"bad kind", "1,A,1,1234\n2024-01-01 00:00:00,Refund,5\n", 2},
		{"bad amount", "1,A,1,1234\n2024-01-01 00:00:00,Deposit,five\n", 2},
		{"wrong field count", "1,A\n", 1},
		{"unterminated quote", "1,\"A,1,1234\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.line, fe.Line)
		})
	}
}

func TestEncode_UnknownKind(t *testing.T) {
	err := Encode(&bytes.Buffer{}, []index.Tuple{{}})
	assert.Error(t, err)
}

func TestTextFile_MissingFileIsEmpty(t *testing.T) {
	f := NewTextFile(filepath.Join(t.TempDir(), "absent.txt"), nil)

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTextFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	f := NewTextFile(path, nil)
	ctx := context.Background()

	require.NoError(t, f.Save(ctx, sampleTuples()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	got, err := f.Load(ctx)
	require.NoError(t, err)
	equalTuples(t, sampleTuples(), got)
}

func TestTextFile_FailedSaveKeepsPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	f := NewTextFile(path, nil)
	ctx := context.Background()
	require.NoError(t, f.Save(ctx, sampleTuples()))

	err := f.Save(ctx, []index.Tuple{{Kind: 42}})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)

	got, err := f.Load(ctx)
	require.NoError(t, err)
	equalTuples(t, sampleTuples(), got)
}

func TestTextFile_UnwritableDirectory(t *testing.T) {
	f := NewTextFile(filepath.Join(t.TempDir(), "missing", "accounts.txt"), nil)

	err := f.Save(context.Background(), sampleTuples())
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "create", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTextFile_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	require.NoError(t, os.WriteFile(path, []byte("1,A,1,1234\nnot,valid\n"), 0o644))

	_, err := NewTextFile(path, nil).Load(context.Background())
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Line)
	assert.Contains(t, err.Error(), path)
}

func TestTextFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewTextFile(filepath.Join(t.TempDir(), "accounts.txt"), nil)
	assert.ErrorIs(t, f.Save(ctx, nil), context.Canceled)
	_, err := f.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
