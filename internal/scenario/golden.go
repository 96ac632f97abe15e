package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the final export of result against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, result.Export)
}

// RunWithGolden runs s, fails t on any scenario error, and compares the
// export against the golden file named after the scenario.
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()
	result, err := Run(s)
	if err != nil {
		t.Fatalf("run %s: %v", s.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", s.Name, e)
	}
	AssertGolden(t, s.Name, result)
	return result
}
