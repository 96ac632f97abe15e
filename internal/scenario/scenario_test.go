package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		s, err := Load(path)
		require.NoError(t, err, path)
		t.Run(s.Name, func(t *testing.T) {
			result := RunWithGolden(t, s)
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_ReportsMismatchAndContinues(t *testing.T) {
	s := &Scenario{
		Name: "mismatch",
		Steps: []Step{
			{Op: OpOpen, ID: 1, Name: "A", Amount: "10", PIN: "0000"},
			{Op: OpWithdraw, ID: 1, Amount: "50"}, // fails, but no expect_error
			{Op: OpDeposit, ID: 1, Amount: "5"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "got insufficient_funds, want ok")

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, "insufficient_funds", result.Outcomes[1].Code)
	assert.Equal(t, "ok", result.Outcomes[2].Code)
}

func TestRun_ExpectFailures(t *testing.T) {
	two := 2
	s := &Scenario{
		Name: "expect",
		Steps: []Step{
			{Op: OpOpen, ID: 2, Name: "B", Amount: "1", PIN: "0000"},
			{Op: OpOpen, ID: 1, Name: "A", Amount: "1", PIN: "0000"},
		},
		Expect: &Expect{
			Count:    &two,
			Total:    "3",
			Order:    []int64{2, 1},
			Balances: map[int64]string{1: "1", 9: "0"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expect.total")
	assert.Contains(t, result.Errors[1], "expect.order")
	assert.Contains(t, result.Errors[2], "expect.balances[9]")
}

func TestRun_DefaultClock(t *testing.T) {
	s := &Scenario{
		Name: "default_clock",
		Steps: []Step{
			{Op: OpOpen, ID: 7, Name: "Seven", Amount: "0", PIN: "7777"},
			{Op: OpDeposit, ID: 7, Amount: "1.50"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, "7,Seven,1.5,7777\n2024-01-01 09:00:00,Deposit,1.5\n", string(result.Export))
}

func TestParse_Valid(t *testing.T) {
	s, err := Parse([]byte(`
name: ok
clock: {start: "2024-05-05T00:00:00Z", step: 2h}
steps:
  - {op: open, id: 1, name: A, amount: "1", pin: "0001"}
`))
	require.NoError(t, err)
	assert.Equal(t, "ok", s.Name)
	assert.Equal(t, "2h0m0s", s.Clock.Step.String())
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "0001", s.Steps[0].PIN)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "steps: [{op: close, id: 1}]", "name is required"},
		{"no steps", "name: x", "steps list is required"},
		{"unknown field", "name: x\nbogus: 1\nsteps: [{op: close, id: 1}]", "field bogus not found"},
		{"unknown op", "name: x\nsteps: [{op: explode}]", `unknown op "explode"`},
		{"missing op", "name: x\nsteps: [{id: 1}]", "op is required"},
		{"open without name", "name: x\nsteps: [{op: open, id: 1, amount: '1'}]", "name is required"},
		{"bad amount", "name: x\nsteps: [{op: deposit, id: 1, amount: ten}]", "deposit: amount"},
		{"bad rate", "name: x\nsteps: [{op: interest}]", "interest: rate"},
		{"bad basis", "name: x\ninterest_basis: sideways\nsteps: [{op: close, id: 1}]", "interest_basis"},
		{"bad start", "name: x\nclock: {start: yesterday}\nsteps: [{op: close, id: 1}]", "clock.start"},
		{"bad total", "name: x\nsteps: [{op: close, id: 1}]\nexpect: {total: lots}", "expect.total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
