// File path: internal/clause/store.go
package clause

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed clauses.yaml
var referenceData []byte

var (
	defaultStore *Store
	defaultErr   error
	defaultOnce  sync.Once
)

// Store holds the static clause graphs and exposes read-only accessors.
// It is safe for concurrent use: nothing is mutated after construction.
type Store struct {
	clauses []Clause
	index   map[string]int
}

// Load returns the store built from the embedded ISO 27001 Clause 4
// reference data, parsed and validated once per process.
func Load() (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = Parse(referenceData)
	})
	return defaultStore, defaultErr
}

// Parse builds a Store from YAML clause definitions and validates the
// resulting graphs for referential integrity and acyclicity.
func Parse(data []byte) (*Store, error) {
	var doc struct {
		Clauses []Clause `yaml:"clauses"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse clause definitions: %w", err)
	}
	if len(doc.Clauses) == 0 {
		return nil, fmt.Errorf("no clauses defined")
	}
	store := &Store{clauses: doc.Clauses, index: make(map[string]int, len(doc.Clauses))}
	for i, c := range doc.Clauses {
		if c.ID == "" {
			return nil, fmt.Errorf("clause %d: id required", i)
		}
		if _, dup := store.index[c.ID]; dup {
			return nil, fmt.Errorf("clause %q defined twice", c.ID)
		}
		store.index[c.ID] = i
	}
	if err := store.validate(); err != nil {
		return nil, err
	}
	return store, nil
}

// Clauses returns the clause definitions in assessment walk order.
func (s *Store) Clauses() []Clause {
	out := make([]Clause, len(s.clauses))
	copy(out, s.clauses)
	return out
}

// ClauseIDs returns the clause identifiers in walk order.
func (s *Store) ClauseIDs() []string {
	ids := make([]string, 0, len(s.clauses))
	for _, c := range s.clauses {
		ids = append(ids, c.ID)
	}
	return ids
}

// Clause returns a clause definition by id.
func (s *Store) Clause(clauseID string) (Clause, error) {
	i, ok := s.index[clauseID]
	if !ok {
		return Clause{}, &NotFoundError{Clause: clauseID}
	}
	return s.clauses[i], nil
}

// Title returns the human-readable title of a clause.
func (s *Store) Title(clauseID string) (string, error) {
	c, err := s.Clause(clauseID)
	if err != nil {
		return "", err
	}
	return c.Title, nil
}

// Question returns the question text for a clause step.
func (s *Store) Question(clauseID, stepID string) (string, error) {
	step, err := s.lookup(clauseID, stepID)
	if err != nil {
		return "", err
	}
	return step.Question, nil
}

// Options returns the exhaustive answer labels for a clause step, in
// definition order.
func (s *Store) Options(clauseID, stepID string) ([]string, error) {
	step, err := s.lookup(clauseID, stepID)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(step.Options))
	for _, opt := range step.Options {
		labels = append(labels, opt.Answer)
	}
	return labels, nil
}

// IsTerminal reports whether at least one transition from the step ends the
// clause. Used by callers for UI framing only; traversal never consults it.
func (s *Store) IsTerminal(clauseID, stepID string) (bool, error) {
	step, err := s.lookup(clauseID, stepID)
	if err != nil {
		return false, err
	}
	for _, opt := range step.Options {
		if opt.Transition.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) lookup(clauseID, stepID string) (*Step, error) {
	i, ok := s.index[clauseID]
	if !ok {
		return nil, &NotFoundError{Clause: clauseID}
	}
	step, ok := s.clauses[i].step(stepID)
	if !ok {
		return nil, &NotFoundError{Clause: clauseID, Step: stepID}
	}
	return step, nil
}

// validate enforces the static graph invariants: step ids and answer labels
// unique, every Continue target resolvable within the same clause, a start
// step present, and every path from the start reaching a terminal
// transition within the clause's step count.
func (s *Store) validate() error {
	for _, c := range s.clauses {
		if len(c.Steps) == 0 {
			return fmt.Errorf("clause %s: no steps", c.ID)
		}
		seen := make(map[string]struct{}, len(c.Steps))
		for _, step := range c.Steps {
			if step.ID == "" {
				return fmt.Errorf("clause %s: step id required", c.ID)
			}
			if _, dup := seen[step.ID]; dup {
				return fmt.Errorf("clause %s: step %q defined twice", c.ID, step.ID)
			}
			seen[step.ID] = struct{}{}
			if len(step.Options) == 0 {
				return fmt.Errorf("clause %s step %s: no options", c.ID, step.ID)
			}
			labels := make(map[string]struct{}, len(step.Options))
			for _, opt := range step.Options {
				if opt.Answer == "" {
					return fmt.Errorf("clause %s step %s: empty answer label", c.ID, step.ID)
				}
				if _, dup := labels[opt.Answer]; dup {
					return fmt.Errorf("clause %s step %s: duplicate answer %q", c.ID, step.ID, opt.Answer)
				}
				labels[opt.Answer] = struct{}{}
				tr := opt.Transition
				if tr.Terminal() == (tr.Next != "") {
					return fmt.Errorf("clause %s step %s answer %q: transition must set exactly one of next or verdict",
						c.ID, step.ID, opt.Answer)
				}
				if tr.Terminal() && !tr.Verdict.Valid() {
					return fmt.Errorf("clause %s step %s answer %q: invalid verdict payload",
						c.ID, step.ID, opt.Answer)
				}
				if !tr.Terminal() {
					if _, ok := c.step(tr.Next); !ok {
						return fmt.Errorf("clause %s step %s answer %q: dangling next step %q",
							c.ID, step.ID, opt.Answer, tr.Next)
					}
				}
			}
		}
		if _, ok := c.step(StartStep); !ok {
			return fmt.Errorf("clause %s: start step %q missing", c.ID, StartStep)
		}
		if err := checkTermination(c); err != nil {
			return err
		}
	}
	return nil
}

// checkTermination walks every Continue edge from the start step and fails
// on any path longer than the clause's step count, which can only happen if
// the graph has a cycle.
func checkTermination(c Clause) error {
	limit := len(c.Steps)
	var walk func(stepID string, depth int) error
	walk = func(stepID string, depth int) error {
		if depth > limit {
			return fmt.Errorf("clause %s: cycle detected through step %q", c.ID, stepID)
		}
		step, ok := c.step(stepID)
		if !ok {
			return fmt.Errorf("clause %s: unreachable step %q", c.ID, stepID)
		}
		for _, opt := range step.Options {
			if opt.Transition.Terminal() {
				continue
			}
			if err := walk(opt.Transition.Next, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(StartStep, 1)
}
