// File path: internal/clause/errors.go
package clause

import "fmt"

// NotFoundError reports an unknown clause or step id. Given a validated
// static graph this is always a caller bug, never expected in normal
// operation.
type NotFoundError struct {
	Clause string
	Step   string
}

func (e *NotFoundError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("clause %q not found", e.Clause)
	}
	return fmt.Sprintf("clause %q step %q not found", e.Clause, e.Step)
}

// InvalidAnswerError reports an answer outside the current step's options.
// Options are presented as an exhaustive closed selection, so this too is a
// caller/UI bug.
type InvalidAnswerError struct {
	Clause string
	Step   string
	Answer string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer %q for clause %q step %q", e.Answer, e.Clause, e.Step)
}
