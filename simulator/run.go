package simulator

import (
	"fmt"
	"time"

	"github.com/safedep/dry/log"
)

// RunOptions configures a full simulation run.
type RunOptions struct {
	Options
	Policies        []PolicyEntry
	AttestationMode AttestationMode
	// Now supplies the wall clock for runs without a start time and for
	// story edits. Defaults to time.Now.
	Now func() time.Time
}

// Run is the complete artifact of a simulation.
type Run struct {
	Config   Config          `json:"config"`
	Mapping  Mapping         `json:"mapping"`
	Policies []PolicyRef     `json:"policies"`
	Events   []TimelineEvent `json:"events"`
	Logs     []LogEntry      `json:"logs"`
	Metrics  *Metrics        `json:"metrics"`
	Story    []StoryEntry    `json:"story"`
}

// Simulate generates a timeline, replays it under every policy and
// aggregates the results.
func Simulate(opts RunOptions) (*Run, error) {
	if len(opts.Policies) == 0 {
		return nil, ErrNoPolicies
	}

	started := time.Now()
	cfg := Normalize(opts.Options)
	timeline, err := Generate(cfg.Options(), opts.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate timeline: %w", err)
	}

	replay, err := Replay(opts.Policies, timeline.Events, opts.AttestationMode)
	if err != nil {
		return nil, fmt.Errorf("failed to replay timeline: %w", err)
	}

	log.Debugf("simulated %d events under %d policies (seed=%s, profile=%s) in %s",
		len(timeline.Events), len(replay.Policies), cfg.Seed, cfg.Profile, time.Since(started))

	return &Run{
		Config:   cfg,
		Mapping:  timeline.Mapping,
		Policies: replay.Policies,
		Events:   timeline.Events,
		Logs:     replay.Logs,
		Metrics:  ComputeMetrics(replay),
		Story:    BuildStory(replay.Logs),
	}, nil
}
