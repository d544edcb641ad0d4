// File path: internal/verdict/verdict.go
package verdict

import (
	"encoding/json"
	"fmt"
)

// Verdict is a discrete compliance outcome for a clause. The set is closed:
// no other literal values are valid anywhere in the system.
type Verdict string

const (
	Complied Verdict = "Complied"
	// OFI is the canonical spelling; compound payloads from the reference
	// decision trees abbreviate it the same way.
	OFI     Verdict = "Opportunity for Improvement"
	MinorNC Verdict = "Minor NC"
	MajorNC Verdict = "Major NC"
)

// All lists every verdict ordered by severity, best first. The order is used
// for display and grouping only, never for traversal decisions.
func All() []Verdict {
	return []Verdict{Complied, OFI, MinorNC, MajorNC}
}

// Severity returns the position of v in the severity order, 0 being best.
// Unknown verdicts sort after every known one.
func (v Verdict) Severity() int {
	for i, known := range All() {
		if v == known {
			return i
		}
	}
	return len(All())
}

// Valid reports whether v is a member of the closed verdict set.
func (v Verdict) Valid() bool {
	switch v {
	case Complied, OFI, MinorNC, MajorNC:
		return true
	}
	return false
}

// Parse converts a raw string into a Verdict, accepting the short "OFI"
// form used inside compound payloads.
func Parse(raw string) (Verdict, error) {
	switch raw {
	case string(Complied), string(MinorNC), string(MajorNC), string(OFI):
		return Verdict(raw), nil
	case "OFI":
		return OFI, nil
	}
	return "", fmt.Errorf("unknown verdict %q", raw)
}

// Payload is a terminal outcome: a single verdict or an ordered compound
// pair [primary, secondary]. The secondary element is an informational
// annotation; all aggregate counting uses the primary only.
type Payload []Verdict

// Single wraps one verdict into a payload.
func Single(v Verdict) Payload {
	return Payload{v}
}

// Compound builds a [primary, secondary] payload.
func Compound(primary, secondary Verdict) Payload {
	return Payload{primary, secondary}
}

// Primary returns the verdict a payload counts and displays as.
func (p Payload) Primary() Verdict {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Valid reports whether the payload is non-empty and every element is a
// member of the closed verdict set.
func (p Payload) Valid() bool {
	if len(p) == 0 {
		return false
	}
	for _, v := range p {
		if !v.Valid() {
			return false
		}
	}
	return true
}

// MarshalJSON keeps the wire shape of the reference data: a bare string for
// single verdicts, an array for compound ones.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]Verdict(p))
}

// UnmarshalJSON accepts either a bare verdict string or an array of them.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		parsed, err := Parse(one)
		if err != nil {
			return err
		}
		*p = Payload{parsed}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("verdict payload must be a string or array: %w", err)
	}
	out := make(Payload, 0, len(many))
	for _, raw := range many {
		parsed, err := Parse(raw)
		if err != nil {
			return err
		}
		out = append(out, parsed)
	}
	*p = out
	return nil
}
