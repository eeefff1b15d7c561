package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Summary aggregates an outcome list for reporting. It is a pure
// function of the outcomes; building one has no side effects.
type Summary struct {
	GeneratedAt   time.Time `json:"generated_at"`
	Total         int       `json:"total"`
	Passed        int       `json:"passed"`
	Failed        int       `json:"failed"`
	MeanLatencyMS float64   `json:"mean_latency_ms"`
	AllPassed     bool      `json:"all_passed"`
	Outcomes      []Outcome `json:"outcomes"`
}

// Summarize computes the totals for the given outcomes. Zero outcomes
// yields a zero mean latency, not an error.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{
		GeneratedAt: time.Now().UTC(),
		Total:       len(outcomes),
		Outcomes:    outcomes,
	}

	var totalLatency float64
	for _, o := range outcomes {
		if o.Passed() {
			s.Passed++
		}
		totalLatency += o.LatencyMS
	}
	s.Failed = s.Total - s.Passed
	s.AllPassed = s.Failed == 0
	if s.Total > 0 {
		s.MeanLatencyMS = totalLatency / float64(s.Total)
	}
	return s
}

// Markdown renders the ordered tabular report consumed by CI systems.
func (s Summary) Markdown() string {
	var b strings.Builder

	b.WriteString("## Verification Report\n\n")
	fmt.Fprintf(&b, "**Run:** %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Summary:** %d/%d checks passed | Avg Latency: %.2fms\n\n", s.Passed, s.Total, s.MeanLatencyMS)

	if s.AllPassed {
		b.WriteString("**Status:** ✅ All checks passed\n")
	} else {
		fmt.Fprintf(&b, "**Status:** ❌ %d check(s) failed\n", s.Failed)
	}

	b.WriteString("\n| Check | Status | Latency (ms) | Detail |\n")
	b.WriteString("|-------|--------|--------------|--------|\n")
	for _, o := range s.Outcomes {
		icon := "✅"
		if !o.Passed() {
			icon = "❌"
		}
		fmt.Fprintf(&b, "| %s | %s %s | %.2f | %s |\n", o.Name, icon, o.Status, o.LatencyMS, o.Detail)
	}

	return b.String()
}

// JSON renders the summary as an indented JSON document.
func (s Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteReport writes the markdown report to path as the CI artifact.
func (s Summary) WriteReport(path string) error {
	if err := os.WriteFile(path, []byte(s.Markdown()), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
