package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/acctree/internal/scenario"
)

// ScriptOptions holds flags for the script command.
type ScriptOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScriptResult holds the result of a single scenario execution.
type ScriptResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// ScriptReport holds the overall result.
type ScriptReport struct {
	Scenarios []ScriptResult `json:"scenarios"`
	Passed    int            `json:"passed"`
	Failed    int            `json:"failed"`
	Total     int            `json:"total"`
}

// NewScriptCommand creates the script command.
func NewScriptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScriptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "script <file-or-dir>...",
		Short: "Run scripted ledger sessions",
		Long: `Run YAML scenario scripts against a fresh in-memory ledger.

Each script lists operations with their expected outcome and optionally the
expected final state. Timestamps come from a deterministic clock, so the
final export can be compared with golden/<name>.golden next to the script.
The data file is never touched.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  acctree script ./scenarios
  acctree script ./scenarios --filter "interest-*"
  acctree script ./scenarios/basic.yaml --update`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScripts(opts *ScriptOptions, paths []string, cmd *cobra.Command) error {
	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	report := ScriptReport{
		Scenarios: make([]ScriptResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return outputScriptJSON(cmd, report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, f := range files {
		r := runScript(f, opts, cmd)
		report.Scenarios = append(report.Scenarios, r)
		if r.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.Format == "json" {
		return outputScriptJSON(cmd, report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it when it is a directory.
func findScenarioFiles(path string, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScript executes one scenario file and compares its export with the
// golden file when one exists.
func runScript(file string, opts *ScriptOptions, cmd *cobra.Command) ScriptResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) ScriptResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScriptResult{Name: name, Pass: false, Errors: errs}
	}

	s, err := scenario.Load(file)
	if err != nil {
		return fail(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}
	result, err := scenario.Run(s)
	if err != nil {
		return fail(s.Name, fmt.Sprintf("execution failed: %v", err))
	}

	goldenPath := goldenFilePath(file)
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
			return fail(s.Name, fmt.Sprintf("failed to create golden directory: %v", err))
		}
		if err := os.WriteFile(goldenPath, result.Export, 0644); err != nil {
			return fail(s.Name, fmt.Sprintf("failed to write golden file: %v", err))
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		}
		return ScriptResult{Name: s.Name, Pass: result.Pass, Errors: result.Errors}
	}

	errs := result.Errors
	want, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file: expectations only.
	case err != nil:
		errs = append(errs, fmt.Sprintf("failed to read golden file: %v", err))
	case !bytes.Equal(want, result.Export):
		errs = append(errs, "export does not match golden file (run with --update to regenerate)")
	}

	if len(errs) > 0 {
		return fail(s.Name, errs...)
	}
	if text {
		fmt.Fprintf(w, "✓ %s\n", s.Name)
	}
	return ScriptResult{Name: s.Name, Pass: true}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// outputScriptJSON writes the report as one JSON envelope.
func outputScriptJSON(cmd *cobra.Command, report ScriptReport) error {
	response := CLIResponse{Status: "ok", Data: report}
	if report.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "failure",
			Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if report.Failed > 0 {
		err := NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
		err.Silent = true
		return err
	}
	return nil
}
