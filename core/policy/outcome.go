// Package policy provides the declarative governance policy model consumed
// by the decision engine.
package policy

import "fmt"

// Outcome is the result a rule, a default or a requirement failure
// prescribes. Values are ordered by severity.
type Outcome int

const (
	// OutcomeAllow lets the action proceed.
	OutcomeAllow Outcome = iota
	// OutcomeWarn lets the action proceed but flags it.
	OutcomeWarn
	// OutcomeDeny rejects the action.
	OutcomeDeny
)

// Outcomes lists every outcome in ascending severity.
var Outcomes = []Outcome{OutcomeAllow, OutcomeWarn, OutcomeDeny}

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeWarn:
		return "warn"
	case OutcomeDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// Severity returns the ordering weight: allow 0, warn 1, deny 2.
func (o Outcome) Severity() int {
	return int(o)
}

// Valid returns true if o is one of the known outcomes.
func (o Outcome) Valid() bool {
	return o >= OutcomeAllow && o <= OutcomeDeny
}

// ParseOutcome parses allow, warn or deny.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "allow":
		return OutcomeAllow, nil
	case "warn":
		return OutcomeWarn, nil
	case "deny":
		return OutcomeDeny, nil
	default:
		return OutcomeAllow, fmt.Errorf("unknown outcome %q (must be allow, warn, or deny)", s)
	}
}

// MaxOutcome returns the more severe of a and b. Ties return a.
func MaxOutcome(a, b Outcome) Outcome {
	if a.Severity() >= b.Severity() {
		return a
	}
	return b
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// OutcomeOr returns *o when set, otherwise fallback.
func OutcomeOr(o *Outcome, fallback Outcome) Outcome {
	if o == nil {
		return fallback
	}
	return *o
}
