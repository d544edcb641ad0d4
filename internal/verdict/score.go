// File path: internal/verdict/score.go
package verdict

// Score thresholds for mapping evaluator scores to a verdict.
const (
	CompliedThreshold = 0.85
	MinorNCThreshold  = 0.7
	MajorNCThreshold  = 0.6
)

// ScoreToVerdict maps relevance and completeness scores to a verdict. It is
// the canonical fallback when the evaluator does not supply a verdict of its
// own. First match wins:
//
//	both >= 0.85            -> Complied
//	either < 0.6            -> Major NC
//	both >= 0.7             -> Minor NC
//	otherwise               -> Opportunity for Improvement
//
// Total function: never fails, accepts out-of-range inputs as-is.
func ScoreToVerdict(relevance, completeness float64) Verdict {
	if relevance >= CompliedThreshold && completeness >= CompliedThreshold {
		return Complied
	}
	if relevance < MajorNCThreshold || completeness < MajorNCThreshold {
		return MajorNC
	}
	if relevance >= MinorNCThreshold && completeness >= MinorNCThreshold {
		return MinorNC
	}
	return OFI
}
