// File path: internal/verdict/verdict_test.go
package verdict

import (
	"encoding/json"
	"testing"
)

func TestParseAcceptsShortOFI(t *testing.T) {
	v, err := Parse("OFI")
	if err != nil {
		t.Fatalf("parse OFI: %v", err)
	}
	if v != OFI {
		t.Fatalf("expected %q, got %q", OFI, v)
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "complied", "Minor nc", " Major NC", "Observation"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("expected parse failure for %q", raw)
		}
	}
}

func TestSeverityOrder(t *testing.T) {
	if !(Complied.Severity() < OFI.Severity() &&
		OFI.Severity() < MinorNC.Severity() &&
		MinorNC.Severity() < MajorNC.Severity()) {
		t.Fatal("severity order must be Complied < OFI < Minor NC < Major NC")
	}
	if Verdict("bogus").Severity() <= MajorNC.Severity() {
		t.Fatal("unknown verdicts must sort after known ones")
	}
}

func TestPayloadJSONShapes(t *testing.T) {
	single, err := json.Marshal(Single(Complied))
	if err != nil {
		t.Fatalf("marshal single: %v", err)
	}
	if string(single) != `"Complied"` {
		t.Fatalf("single payload must encode as a bare string, got %s", single)
	}

	compound, err := json.Marshal(Compound(MinorNC, OFI))
	if err != nil {
		t.Fatalf("marshal compound: %v", err)
	}
	if string(compound) != `["Minor NC","Opportunity for Improvement"]` {
		t.Fatalf("unexpected compound encoding: %s", compound)
	}

	var decoded Payload
	if err := json.Unmarshal([]byte(`["Minor NC","OFI"]`), &decoded); err != nil {
		t.Fatalf("unmarshal compound: %v", err)
	}
	if decoded.Primary() != MinorNC || len(decoded) != 2 || decoded[1] != OFI {
		t.Fatalf("unexpected decoded payload: %v", decoded)
	}

	var bare Payload
	if err := json.Unmarshal([]byte(`"Major NC"`), &bare); err != nil {
		t.Fatalf("unmarshal bare: %v", err)
	}
	if bare.Primary() != MajorNC || len(bare) != 1 {
		t.Fatalf("unexpected bare payload: %v", bare)
	}
}

func TestScoreToVerdict(t *testing.T) {
	cases := []struct {
		name                    string
		relevance, completeness float64
		want                    Verdict
	}{
		{"both high", 0.9, 0.9, Complied},
		{"complied boundary", 0.85, 0.85, Complied},
		{"relevance low", 0.5, 0.9, MajorNC},
		{"completeness low", 0.9, 0.5, MajorNC},
		{"both mid", 0.75, 0.75, MinorNC},
		{"one at minor threshold", 0.7, 0.95, MinorNC},
		{"both at major cutoff", 0.6, 0.6, OFI},
		{"mixed band", 0.65, 0.8, OFI},
		{"zero", 0, 0, MajorNC},
		{"out of range accepted", 1.5, 1.5, Complied},
		{"negative", -0.2, 0.9, MajorNC},
	}
	for _, tc := range cases {
		if got := ScoreToVerdict(tc.relevance, tc.completeness); got != tc.want {
			t.Fatalf("%s: ScoreToVerdict(%v, %v) = %q, want %q",
				tc.name, tc.relevance, tc.completeness, got, tc.want)
		}
	}
}
