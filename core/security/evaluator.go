package security

import (
	"errors"
	"time"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
)

var (
	// ErrNilPolicy is returned when Evaluate is called without a policy.
	ErrNilPolicy = errors.New("policy is required")
	// ErrNilEvent is returned when Evaluate is called without an event.
	ErrNilEvent = errors.New("event is required")
)

// Config holds configuration options for the decision engine.
type Config struct {
	// Verifier checks attestations. Defaults to the ed25519 verifier.
	Verifier AttestationVerifier
}

// Session is the per-call evaluation context. Nonces is shared by every
// evaluation in one session and must be owned by the caller.
type Session struct {
	PolicyHash string
	Now        time.Time
	Nonces     *NonceStore
}

// Evaluator composes the decision pipeline: gates, rule matching,
// provenance requirements and attestation verification.
type Evaluator struct {
	gates  []Gate
	config *Config
}

// New creates a new Evaluator with the given configuration. The agent
// eligible labels gate is always registered.
func New(cfg *Config) *Evaluator {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.Verifier == nil {
		c.Verifier = NewEd25519Verifier()
	}
	return &Evaluator{
		gates:  []Gate{NewEligibleLabelsGate()},
		config: &c,
	}
}

// RegisterGate adds a pre-rule gate. Gates run in registration order.
func (e *Evaluator) RegisterGate(gate Gate) {
	e.gates = append(e.gates, gate)
}

// Verifier returns the configured attestation verifier.
func (e *Evaluator) Verifier() AttestationVerifier {
	return e.config.Verifier
}

// Evaluate decides ev under p. Requirement failures are never errors; they
// raise the decision and are listed in the reason codes. A nil Nonces in
// the session gets a fresh store, which disables replay protection across
// calls.
func (e *Evaluator) Evaluate(p *policy.Policy, ev *events.Event, session Session) (*Decision, error) {
	if p == nil {
		return nil, ErrNilPolicy
	}
	if ev == nil {
		return nil, ErrNilEvent
	}
	if session.Nonces == nil {
		session.Nonces = NewNonceStore()
	}
	if session.Now.IsZero() {
		session.Now = time.Now()
	}

	actor := ResolveActor(p, ev.Actor)

	for _, gate := range e.gates {
		result := gate.Check(p, ev, actor)
		if result.Applies && !result.OK {
			return &Decision{
				Decision:    result.Decision,
				Actor:       actor.Ref(),
				ReasonCodes: []string{result.ReasonCode},
			}, nil
		}
	}

	match := MatchRules(p, ev, actor)
	decision := &Decision{
		Actor:            actor.Ref(),
		MatchedRuleCount: match.MatchedCount(),
	}

	if match.Selected == nil {
		decision.Decision = p.Defaults.Unmatched
		decision.ReasonCodes = []string{ReasonDefaultsUnmatched}
		return decision, nil
	}

	decision.Decision = match.Selected.Outcome
	decision.SelectedRuleID = match.Selected.ID
	decision.ReasonCodes = []string{RuleSelectedReason(match.Selected.ID)}

	req := ResolveRequirements(p, match.Selected)

	if provenance := CheckProvenance(p, req, ev); !provenance.OK {
		decision.escalate(provenance.OnFailure, provenance.ReasonCodes...)
	}

	if req.NeedsAttestation(actor) {
		result := e.config.Verifier.Verify(&VerificationRequest{
			Policy:     p,
			PolicyHash: session.PolicyHash,
			Event:      ev,
			Actor:      actor,
			Nonces:     session.Nonces,
			Now:        session.Now,
		})
		if !result.OK {
			decision.escalate(req.OnFailure, result.ReasonCodes...)
		}
	}

	return decision, nil
}
