package market

import (
	"encoding/json"
	"fmt"
)

// Outcome is the side of a binary market.
type Outcome uint8

const (
	OutcomeYes Outcome = iota
	OutcomeNo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	}
	return "unknown"
}

// Opposite returns the other side of the market.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// ParseOutcome converts a wire string into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "yes", "YES", "Yes":
		return OutcomeYes, nil
	case "no", "NO", "No":
		return OutcomeNo, nil
	}
	return 0, fmt.Errorf("invalid outcome %q", s)
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
