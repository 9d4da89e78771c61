package simulator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/safedep/covenant/core/policy"
)

// ErrInvalidMapping is returned when a mapping routes a type to an unknown
// simulator type or a non-canonical action.
var ErrInvalidMapping = errors.New("invalid mapping")

// Mapping routes simulator event types to canonical actions.
type Mapping map[string]string

// DefaultMapping returns every catalog type mapped to its default action.
func DefaultMapping() Mapping {
	m := make(Mapping, len(Catalog))
	for _, entry := range Catalog {
		m[entry.Type] = entry.DefaultAction
	}
	return m
}

// MergeMapping applies overrides on top of the default mapping.
func MergeMapping(overrides map[string]string) Mapping {
	m := DefaultMapping()
	for simType, action := range overrides {
		m[simType] = action
	}
	return m
}

// Validate reports every unknown type and unsupported action, catalog
// types first.
func (m Mapping) Validate() error {
	var problems []string
	for _, simType := range m.orderedTypes() {
		action := m[simType]
		if _, ok := LookupType(simType); !ok {
			problems = append(problems, fmt.Sprintf("unknown simulator type '%s'", simType))
			continue
		}
		if !policy.IsCanonicalAction(action) {
			problems = append(problems, fmt.Sprintf("type '%s' has unsupported canonical action '%s'", simType, action))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMapping, strings.Join(problems, ", "))
	}
	return nil
}

// Action returns the mapped action, falling back to issue.comment.
func (m Mapping) Action(simType string) string {
	if action := m[simType]; action != "" {
		return action
	}
	return policy.ActionIssueComment
}

func (m Mapping) orderedTypes() []string {
	types := make([]string, 0, len(m))
	var extra []string
	for _, entry := range Catalog {
		if _, ok := m[entry.Type]; ok {
			types = append(types, entry.Type)
		}
	}
	for simType := range m {
		if _, ok := LookupType(simType); !ok {
			extra = append(extra, simType)
		}
	}
	sort.Strings(extra)
	return append(types, extra...)
}
