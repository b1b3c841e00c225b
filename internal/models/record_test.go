package models

import (
	"errors"
	"testing"
)

func TestDedupKeyNormalizes(t *testing.T) {
	a := Record{System: " Billing ", Process: "Refund Request", Instructions: "Open ticket<br>Approve"}
	b := Record{System: "billing", Process: "  refund request", Instructions: "OPEN TICKET<br>approve  "}

	if a.Key() != b.Key() {
		t.Errorf("keys differ: %+v vs %+v", a.Key(), b.Key())
	}

	c := Record{System: "billing", Process: "refund request", Instructions: "Open ticket"}
	if a.Key() == c.Key() {
		t.Errorf("different instructions should produce different keys")
	}
}

func TestCanonicalText(t *testing.T) {
	r := Record{System: "HR", Process: "Onboarding", Instructions: "Create account", Rationale: "ignored"}
	if got, want := r.CanonicalText(), "HR Onboarding Create account"; got != want {
		t.Errorf("CanonicalText() = %q, want %q", got, want)
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		name         string
		instructions string
		want         int
	}{
		{"single step", "Restart the service", 1},
		{"three steps", "Stop<br>Patch<br>Start", 3},
		{"empty segments dropped", "Stop<br><br> <br>Start", 2},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Record{Instructions: tt.instructions}.Steps()
			if len(got) != tt.want {
				t.Errorf("Steps() returned %d steps, want %d (%q)", len(got), tt.want, got)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"complete", Record{System: "IT", Process: "Reset password"}, true},
		{"blank system", Record{System: "  ", Process: "Reset password"}, false},
		{"missing process", Record{System: "IT"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseErrorMatchesRowRejected(t *testing.T) {
	var err error = &ParseError{Line: 4, Text: "a|b", Reason: "expected 4 columns, got 2"}
	if !errors.Is(err, ErrRowRejected) {
		t.Errorf("ParseError should match ErrRowRejected")
	}
	if got, want := err.Error(), "line 4: expected 4 columns, got 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestVectorCodec(t *testing.T) {
	encoded := EncodeVector([]float32{0.5, -0.25, 1})
	if want := "[0.500000,-0.250000,1.000000]"; encoded != want {
		t.Fatalf("EncodeVector() = %q, want %q", encoded, want)
	}

	decoded, err := DecodeVector(encoded)
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	if len(decoded) != 3 || decoded[0] != 0.5 || decoded[1] != -0.25 || decoded[2] != 1 {
		t.Errorf("DecodeVector() = %v", decoded)
	}

	if EncodeVector(nil) != "" {
		t.Errorf("nil vector should encode to empty string")
	}
	if v, err := DecodeVector(""); err != nil || v != nil {
		t.Errorf("DecodeVector(\"\") = %v, %v; want nil, nil", v, err)
	}
	if _, err := DecodeVector("[1, oops]"); err == nil {
		t.Errorf("expected error for malformed vector")
	}
}
