// File path: internal/clause/store_test.go
package clause

import (
	"errors"
	"strings"
	"testing"

	"github.com/levnertech/gapcheck/internal/verdict"
)

func mustLoad(t *testing.T) *Store {
	t.Helper()
	store, err := Load()
	if err != nil {
		t.Fatalf("load reference clauses: %v", err)
	}
	return store
}

func TestLoadReferenceClauses(t *testing.T) {
	store := mustLoad(t)
	ids := store.ClauseIDs()
	want := []string{"4.1", "4.2", "4.3", "4.4"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d clauses, got %d", len(want), len(ids))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("clause order mismatch at %d: got %q want %q", i, ids[i], id)
		}
	}
	for _, c := range store.Clauses() {
		if len(c.Steps) != 5 {
			t.Fatalf("clause %s: expected 5 steps, got %d", c.ID, len(c.Steps))
		}
		if c.Title == "" {
			t.Fatalf("clause %s: missing title", c.ID)
		}
	}
}

func TestQuestionAndOptions(t *testing.T) {
	store := mustLoad(t)

	q, err := store.Question("4.1", "3")
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	if !strings.HasPrefix(q, "Where are these issues documented") {
		t.Fatalf("unexpected question text: %q", q)
	}

	opts, err := store.Options("4.1", "3")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := []string{"Clear Documentation", "Partial / Verbal Only"}
	if len(opts) != len(want) {
		t.Fatalf("expected %d options, got %v", len(want), opts)
	}
	for i := range want {
		if opts[i] != want[i] {
			t.Fatalf("option order mismatch at %d: got %q want %q", i, opts[i], want[i])
		}
	}
}

func TestLookupUnknownIDs(t *testing.T) {
	store := mustLoad(t)

	var notFound *NotFoundError
	if _, err := store.Question("9.9", "1"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown clause, got %v", err)
	}
	if _, err := store.Options("4.1", "42"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown step, got %v", err)
	}
	if _, err := store.Title("0.0"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown title, got %v", err)
	}
}

func TestIsTerminal(t *testing.T) {
	store := mustLoad(t)
	// Every step in the reference trees can end the clause on some answer.
	for _, c := range store.Clauses() {
		for _, step := range c.Steps {
			terminal, err := store.IsTerminal(c.ID, step.ID)
			if err != nil {
				t.Fatalf("is terminal %s/%s: %v", c.ID, step.ID, err)
			}
			if !terminal {
				t.Fatalf("clause %s step %s: expected at least one terminal transition", c.ID, step.ID)
			}
		}
	}

	custom, err := Parse([]byte(`
clauses:
  - id: "t.1"
    title: "test"
    steps:
      - id: "1"
        question: "continue only?"
        options:
          - answer: "Go"
            next: "2"
      - id: "2"
        question: "done?"
        options:
          - answer: "Yes"
            verdict: "Complied"
`))
	if err != nil {
		t.Fatalf("parse custom clause: %v", err)
	}
	terminal, err := custom.IsTerminal("t.1", "1")
	if err != nil {
		t.Fatalf("is terminal: %v", err)
	}
	if terminal {
		t.Fatal("step with only continue transitions must not be terminal")
	}
}

func TestParseRejectsDanglingNext(t *testing.T) {
	_, err := Parse([]byte(`
clauses:
  - id: "t.1"
    title: "test"
    steps:
      - id: "1"
        question: "q"
        options:
          - answer: "Yes"
            next: "7"
`))
	if err == nil || !strings.Contains(err.Error(), "dangling") {
		t.Fatalf("expected dangling next error, got %v", err)
	}
}

func TestParseRejectsCycle(t *testing.T) {
	_, err := Parse([]byte(`
clauses:
  - id: "t.1"
    title: "test"
    steps:
      - id: "1"
        question: "q1"
        options:
          - answer: "On"
            next: "2"
      - id: "2"
        question: "q2"
        options:
          - answer: "Back"
            next: "1"
          - answer: "Stop"
            verdict: "Complied"
`))
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestParseRejectsAmbiguousTransition(t *testing.T) {
	_, err := Parse([]byte(`
clauses:
  - id: "t.1"
    title: "test"
    steps:
      - id: "1"
        question: "q"
        options:
          - answer: "Both"
            next: "1"
            verdict: "Complied"
`))
	if err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Fatalf("expected ambiguous transition error, got %v", err)
	}
}

func TestParseRejectsMissingStartStep(t *testing.T) {
	_, err := Parse([]byte(`
clauses:
  - id: "t.1"
    title: "test"
    steps:
      - id: "2"
        question: "q"
        options:
          - answer: "Yes"
            verdict: "Complied"
`))
	if err == nil || !strings.Contains(err.Error(), "start step") {
		t.Fatalf("expected missing start step error, got %v", err)
	}
}

func TestParseRejectsUnknownVerdict(t *testing.T) {
	_, err := Parse([]byte(`
clauses:
  - id: "t.1"
    title: "test"
    steps:
      - id: "1"
        question: "q"
        options:
          - answer: "Yes"
            verdict: "Observation"
`))
	if err == nil || !strings.Contains(err.Error(), "unknown verdict") {
		t.Fatalf("expected unknown verdict error, got %v", err)
	}
}

func TestCompoundVerdictFixture(t *testing.T) {
	store := mustLoad(t)
	outcome, err := store.Evaluate("4.2", "2", "No")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !outcome.Terminal() {
		t.Fatal("expected terminal outcome")
	}
	if outcome.Verdict.Primary() != verdict.MajorNC || len(outcome.Verdict) != 2 || outcome.Verdict[1] != verdict.MinorNC {
		t.Fatalf("unexpected compound payload: %v", outcome.Verdict)
	}
}
