// File path: internal/clause/clause.go
package clause

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/levnertech/gapcheck/internal/verdict"
)

// StartStep is the entry step of every clause graph.
const StartStep = "1"

// Clause is one top-level compliance requirement area modeled as a question
// graph. Clauses are static: loaded once, immutable afterwards.
type Clause struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is a single question node. Options are kept in definition order since
// they are presented to the user as an exhaustive radio selection.
type Step struct {
	ID       string   `json:"id" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	Options  []Option `json:"options" yaml:"options"`
}

// Option binds an answer label to its transition.
type Option struct {
	Answer     string     `json:"answer" yaml:"answer"`
	Transition Transition `json:"transition" yaml:"-"`
}

// Transition is a tagged union: either Continue(next step id) or
// Terminal(verdict payload). Exactly one side is set; Validate enforces it.
type Transition struct {
	Next    string          `json:"next,omitempty" yaml:"next,omitempty"`
	Verdict verdict.Payload `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// Terminal reports whether the transition ends the clause with a verdict.
func (t Transition) Terminal() bool {
	return len(t.Verdict) > 0
}

// Outcome is the result of evaluating an answer: either the next step id or
// a terminal verdict payload.
type Outcome struct {
	NextStep string          `json:"next,omitempty"`
	Verdict  verdict.Payload `json:"verdict,omitempty"`
}

// Terminal reports whether the outcome carries a verdict.
func (o Outcome) Terminal() bool {
	return len(o.Verdict) > 0
}

// step looks up a step by id within the clause.
func (c *Clause) step(id string) (*Step, bool) {
	for i := range c.Steps {
		if c.Steps[i].ID == id {
			return &c.Steps[i], true
		}
	}
	return nil, false
}

// option looks up an option by exact answer label. No fuzzy matching and no
// case folding: choices are presented as a closed selection, so anything
// else is a caller bug.
func (s *Step) option(answer string) (*Option, bool) {
	for i := range s.Options {
		if s.Options[i].Answer == answer {
			return &s.Options[i], true
		}
	}
	return nil, false
}

// UnmarshalYAML decodes an option whose verdict may be a bare scalar or a
// sequence, mirroring the shape of the reference decision-tree data.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Answer  string    `yaml:"answer"`
		Next    string    `yaml:"next"`
		Verdict yaml.Node `yaml:"verdict"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	o.Answer = raw.Answer
	o.Transition = Transition{Next: raw.Next}
	switch raw.Verdict.Kind {
	case 0:
		// no verdict: Continue transition
	case yaml.ScalarNode:
		parsed, err := verdict.Parse(raw.Verdict.Value)
		if err != nil {
			return fmt.Errorf("option %q: %w", raw.Answer, err)
		}
		o.Transition.Verdict = verdict.Single(parsed)
	case yaml.SequenceNode:
		var labels []string
		if err := raw.Verdict.Decode(&labels); err != nil {
			return fmt.Errorf("option %q: %w", raw.Answer, err)
		}
		payload := make(verdict.Payload, 0, len(labels))
		for _, label := range labels {
			parsed, err := verdict.Parse(label)
			if err != nil {
				return fmt.Errorf("option %q: %w", raw.Answer, err)
			}
			payload = append(payload, parsed)
		}
		o.Transition.Verdict = payload
	default:
		return fmt.Errorf("option %q: verdict must be a scalar or sequence", raw.Answer)
	}
	return nil
}
