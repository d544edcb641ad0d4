// File path: internal/clause/engine.go
package clause

// Evaluate advances an assessment position by one answer. The answer must be
// exactly one of the step's option labels. The result is either the next
// step id or a terminal verdict payload.
//
// Evaluate is a pure function of its inputs and the static graph: no side
// effects, identical calls yield identical results, safe to retry and safe
// to call concurrently. Acyclicity is a static property enforced at load
// time, not re-checked here.
func (s *Store) Evaluate(clauseID, stepID, answer string) (Outcome, error) {
	step, err := s.lookup(clauseID, stepID)
	if err != nil {
		return Outcome{}, err
	}
	opt, ok := step.option(answer)
	if !ok {
		return Outcome{}, &InvalidAnswerError{Clause: clauseID, Step: stepID, Answer: answer}
	}
	if opt.Transition.Terminal() {
		return Outcome{Verdict: opt.Transition.Verdict}, nil
	}
	return Outcome{NextStep: opt.Transition.Next}, nil
}
