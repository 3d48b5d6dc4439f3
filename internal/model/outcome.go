package model

import (
	"encoding/json"
	"fmt"
)

// Outcome is what a pass did with one video item.
type Outcome int

const (
	// OutcomeKept means the item was classified educational and is visible.
	OutcomeKept Outcome = iota

	// OutcomeSuppressed means the item was blurred and made inert.
	OutcomeSuppressed

	// OutcomeShortForm means the item is short-form content and was
	// suppressed without classification.
	OutcomeShortForm
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeKept:
		return "kept"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeShortForm:
		return "short-form"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "kept":
		return OutcomeKept, nil
	case "suppressed":
		return OutcomeSuppressed, nil
	case "short-form":
		return OutcomeShortForm, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// MarshalJSON encodes the outcome as its string form.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes the string form.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}
