package events

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/safedep/covenant/core/policy"
)

// Event is a canonical repository action.
type Event struct {
	Action      string       `json:"action"`
	Actor       Actor        `json:"actor"`
	Repository  Repository   `json:"repository"`
	Target      Target       `json:"target"`
	Evidence    Evidence     `json:"evidence"`
	Attestation *Attestation `json:"attestation"`
	Source      *Source      `json:"source,omitempty"`
}

// ActionNamespace returns the part of the action before the first dot.
func (e *Event) ActionNamespace() string {
	namespace, _, _ := strings.Cut(e.Action, ".")
	return namespace
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}

	out := *e
	out.Target.Labels = slices.Clone(e.Target.Labels)
	if e.Evidence != nil {
		out.Evidence = make(Evidence, len(e.Evidence))
		for k, v := range e.Evidence {
			out.Evidence[k] = v
		}
	}
	if e.Attestation != nil {
		attestation := *e.Attestation
		out.Attestation = &attestation
	}
	if e.Source != nil {
		source := *e.Source
		out.Source = &source
	}
	return &out
}

// ThreadModeFromLabels derives a thread mode from thread:human and
// thread:agent labels, defaulting to mixed.
func ThreadModeFromLabels(labels []string) policy.ThreadMode {
	switch {
	case slices.Contains(labels, "thread:human"):
		return policy.ThreadHuman
	case slices.Contains(labels, "thread:agent"):
		return policy.ThreadAgent
	default:
		return policy.ThreadMixed
	}
}

// Parse decodes a JSON event document.
func Parse(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if ev.Action == "" {
		return nil, fmt.Errorf("failed to parse event: action is required")
	}
	return &ev, nil
}

// Load reads and decodes the event file at path.
func Load(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	return Parse(data)
}
