package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/calliope-studio/calliope/internal/canon"
)

// traceDocument projects a result into a canonical-JSON-ready map.
func traceDocument(name string, result *Result) map[string]any {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = map[string]any{
			"op":    ev.Op,
			"seq":   ev.Seq,
			"state": ev.State,
		}
	}
	return map[string]any{
		"scenario_name": name,
		"trace":         trace,
	}
}

// RunWithGolden executes a scenario, fails the test on any assertion
// error, and compares the canonical trace against the golden file at
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	traceJSON, err := canon.Marshal(traceDocument(s.Name, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, traceJSON)

	return nil
}
