package policy

import (
	"errors"
	"strings"
)

type selectorForm int

const (
	selectAny selectorForm = iota
	selectKind
	selectID
)

// ActorSelector is a rule's actor clause, resolved once at load time into
// one of: any, a kind, or an exact actor/profile id.
type ActorSelector struct {
	form  selectorForm
	value string
}

// AnyActor matches every actor.
func AnyActor() ActorSelector {
	return ActorSelector{form: selectAny, value: "any"}
}

// KindSelector matches actors resolved to kind.
func KindSelector(kind ActorKind) ActorSelector {
	return ActorSelector{form: selectKind, value: string(kind)}
}

// IDSelector matches an exact actor id or profile id.
func IDSelector(id string) ActorSelector {
	return ActorSelector{form: selectID, value: id}
}

// ParseActorSelector classifies raw as any, a known kind, or an id.
func ParseActorSelector(raw string) (ActorSelector, error) {
	switch {
	case raw == "":
		return ActorSelector{}, errors.New("actor selector must not be empty")
	case raw == "any":
		return AnyActor(), nil
	case ActorKind(raw).IsKnown():
		return KindSelector(ActorKind(raw)), nil
	default:
		return IDSelector(raw), nil
	}
}

// IsAny returns true for the wildcard selector.
func (s ActorSelector) IsAny() bool {
	return s.form == selectAny
}

// Kind returns the selected kind, if this is a kind selector.
func (s ActorSelector) Kind() (ActorKind, bool) {
	if s.form != selectKind {
		return "", false
	}
	return ActorKind(s.value), true
}

// ID returns the selected id, if this is an id selector.
func (s ActorSelector) ID() (string, bool) {
	if s.form != selectID {
		return "", false
	}
	return s.value, true
}

// String returns the selector as written in the policy.
func (s ActorSelector) String() string {
	if s.value == "" {
		return "any"
	}
	return s.value
}

// MarshalText implements encoding.TextMarshaler.
func (s ActorSelector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ActorSelector) UnmarshalText(text []byte) error {
	parsed, err := ParseActorSelector(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type patternForm int

const (
	patternAny patternForm = iota
	patternPrefix
	patternExact
)

// ActionPattern is a rule's action clause: "*", "prefix.*" or an exact
// canonical action.
type ActionPattern struct {
	form  patternForm
	raw   string
	match string
}

// ParseActionPattern classifies raw. The prefix form keeps its trailing dot
// so "pull_request.*" only matches actions under "pull_request.".
func ParseActionPattern(raw string) (ActionPattern, error) {
	switch {
	case raw == "":
		return ActionPattern{}, errors.New("action pattern must not be empty")
	case raw == "*":
		return ActionPattern{form: patternAny, raw: raw}, nil
	case strings.HasSuffix(raw, ".*"):
		return ActionPattern{form: patternPrefix, raw: raw, match: strings.TrimSuffix(raw, "*")}, nil
	default:
		return ActionPattern{form: patternExact, raw: raw, match: raw}, nil
	}
}

// MustActionPattern is ParseActionPattern for literals.
func MustActionPattern(raw string) ActionPattern {
	p, err := ParseActionPattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Score returns 0 for "*", 1 for a matching prefix, 2 for exact equality,
// and -1 when the pattern does not match action.
func (p ActionPattern) Score(action string) int {
	if p.form == patternAny {
		return 0
	}
	if p.raw == action {
		return 2
	}
	if p.form == patternPrefix && strings.HasPrefix(action, p.match) {
		return 1
	}
	return -1
}

// IsWildcard returns true for "*".
func (p ActionPattern) IsWildcard() bool {
	return p.form == patternAny
}

// Prefix returns the prefix (without trailing dot) for the prefix form.
func (p ActionPattern) Prefix() (string, bool) {
	if p.form != patternPrefix {
		return "", false
	}
	return strings.TrimSuffix(p.match, "."), true
}

// String returns the pattern as written in the policy.
func (p ActionPattern) String() string {
	if p.raw == "" {
		return "*"
	}
	return p.raw
}

// MarshalText implements encoding.TextMarshaler.
func (p ActionPattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ActionPattern) UnmarshalText(text []byte) error {
	parsed, err := ParseActionPattern(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
