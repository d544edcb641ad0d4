// File path: internal/verdict/report.go
package verdict

import "fmt"

// ClauseResult pairs a clause with its recorded verdict payload and any
// supporting detail gathered during the assessment (evaluator feedback,
// scores, evidence analysis).
type ClauseResult struct {
	Clause  string                 `json:"clause"`
	Verdict Payload                `json:"verdict"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Report is the compiled outcome of a full assessment run.
type Report struct {
	GapAnalysis     []ClauseResult  `json:"gap_analysis"`
	Counts          map[Verdict]int `json:"counts"`
	Recommendations []string        `json:"recommendations"`
	Checklist       []string        `json:"checklist"`
}

// Counts reduces recorded verdict payloads to a per-verdict tally. Every
// member of the verdict set is present in the result, zero or not. Compound
// payloads count by their primary verdict only.
func Counts(payloads []Payload) map[Verdict]int {
	counts := make(map[Verdict]int, len(All()))
	for _, v := range All() {
		counts[v] = 0
	}
	for _, p := range payloads {
		primary := p.Primary()
		if _, ok := counts[primary]; ok {
			counts[primary]++
		}
	}
	return counts
}

// Recommendations returns the fixed remediation guidance for a verdict, in
// a stable order.
func Recommendations(v Verdict) []string {
	switch v {
	case Complied:
		return []string{
			"Maintain the practices that are already working well.",
		}
	case MinorNC:
		return []string{
			"Fix the missing details to reach full compliance.",
			"Review the documentation and complete the sections that are still inadequate.",
		}
	case OFI:
		return []string{
			"Consider improving the process even though the minimum requirements are met.",
			"Write more detailed procedures to improve consistency of implementation.",
		}
	default: // Major NC
		return []string{
			"Implement the missing process required by the clause immediately.",
			"Draft and document baseline procedures for initial compliance.",
		}
	}
}

// AggregateRecommendations collects per-clause recommendations across all
// results, deduplicated with first occurrence winning and order preserved.
func AggregateRecommendations(results []ClauseResult) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, res := range results {
		for _, rec := range Recommendations(res.Verdict.Primary()) {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}

// Checklist builds one remediation line per non-Complied clause, in input
// order. When every clause complied it returns a single fixed line rather
// than an empty list.
func Checklist(results []ClauseResult) []string {
	var items []string
	for _, res := range results {
		primary := res.Verdict.Primary()
		if primary == Complied {
			continue
		}
		items = append(items, fmt.Sprintf("Review and remediate clause %s: verdict = %s", res.Clause, primary))
	}
	if len(items) == 0 {
		items = append(items, "All clauses complied; nothing outstanding.")
	}
	return items
}

// CompileReport assembles the full report for a set of clause results.
func CompileReport(results []ClauseResult) Report {
	payloads := make([]Payload, 0, len(results))
	for _, res := range results {
		payloads = append(payloads, res.Verdict)
	}
	return Report{
		GapAnalysis:     results,
		Counts:          Counts(payloads),
		Recommendations: AggregateRecommendations(results),
		Checklist:       Checklist(results),
	}
}
