package policy

// Default attestation windows, in seconds.
const (
	DefaultMaxAgeSeconds   = 900
	DefaultNonceTTLSeconds = 3600
)

// Policy is a validated governance policy document. It is never mutated by
// the decision engine.
type Policy struct {
	SpecVersion  string               `yaml:"spec_version"`
	Defaults     Defaults             `yaml:"defaults"`
	Actors       Actors               `yaml:"actors,omitempty"`
	Surfaces     *Surfaces            `yaml:"surfaces,omitempty"`
	Rules        []Rule               `yaml:"rules"`
	Requirements *Requirements        `yaml:"requirements,omitempty"`
	Attestation  *AttestationContract `yaml:"attestation,omitempty"`
	Enforcement  *Enforcement         `yaml:"enforcement,omitempty"`
	Routing      *Routing             `yaml:"routing,omitempty"`
	Policies     *Gates               `yaml:"policies,omitempty"`
	Metadata     map[string]any       `yaml:"metadata,omitempty"`
}

// Defaults holds fallbacks applied when no rule matches.
type Defaults struct {
	Unmatched Outcome `yaml:"unmatched"`
}

// Actors groups declared actor profiles by kind.
type Actors struct {
	Humans   []ActorProfile `yaml:"humans,omitempty"`
	Agents   []ActorProfile `yaml:"agents,omitempty"`
	Managers []ActorProfile `yaml:"managers,omitempty"`
}

// ProfilesFor returns the declared profiles for kind.
func (a Actors) ProfilesFor(kind ActorKind) []ActorProfile {
	switch kind {
	case ActorHuman:
		return a.Humans
	case ActorAgent:
		return a.Agents
	case ActorManager:
		return a.Managers
	default:
		return nil
	}
}

// ActorProfile is a policy-declared identity.
type ActorProfile struct {
	ID           string        `yaml:"id"`
	Match        ActorMatch    `yaml:"match"`
	Verification *Verification `yaml:"verification,omitempty"`
}

// ActorMatch lists the usernames a profile claims.
type ActorMatch struct {
	Usernames []string `yaml:"usernames"`
}

// Verification carries an actor's attestation verification key.
type Verification struct {
	// Type is the signature scheme, only "ed25519" is supported.
	Type string `yaml:"type"`
	// PublicKey is the base64 encoded DER (SPKI) public key.
	PublicKey string `yaml:"public_key"`
}

// Surfaces restricts the actions a repository exposes.
type Surfaces struct {
	Actions []string `yaml:"actions,omitempty"`
}

// Rule is one policy rule.
type Rule struct {
	ID           string            `yaml:"id"`
	Actor        ActorSelector     `yaml:"actor"`
	Action       ActionPattern     `yaml:"action"`
	Target       map[string]string `yaml:"target,omitempty"`
	Conditions   *Conditions       `yaml:"conditions,omitempty"`
	Requirements *RuleRequirements `yaml:"requirements,omitempty"`
	Outcome      Outcome           `yaml:"outcome"`
}

// Conditions are label and attribute predicates on the event.
type Conditions struct {
	LabelsAny            []string `yaml:"labels_any,omitempty"`
	LabelsAll            []string `yaml:"labels_all,omitempty"`
	RepositoryVisibility string   `yaml:"repository_visibility,omitempty"`
	ThreadMode           string   `yaml:"thread_mode,omitempty"`
}

// DeclaredCount returns how many condition keys the rule declares.
func (c *Conditions) DeclaredCount() int {
	if c == nil {
		return 0
	}
	n := 0
	if c.LabelsAny != nil {
		n++
	}
	if c.LabelsAll != nil {
		n++
	}
	if c.RepositoryVisibility != "" {
		n++
	}
	if c.ThreadMode != "" {
		n++
	}
	return n
}

// RuleRequirements override the policy-wide requirements for one rule.
type RuleRequirements struct {
	ProvenanceProfile string          `yaml:"provenance_profile,omitempty"`
	Attestation       AttestationMode `yaml:"attestation,omitempty"`
	OnFailure         *Outcome        `yaml:"on_failure,omitempty"`
}

// Requirements are the policy-wide provenance settings.
type Requirements struct {
	OnFailure                *Outcome                     `yaml:"on_failure,omitempty"`
	DefaultProvenanceProfile string                       `yaml:"default_provenance_profile,omitempty"`
	ProvenanceProfiles       map[string]ProvenanceProfile `yaml:"provenance_profiles,omitempty"`
}

// ProvenanceProfile is a named set of required evidence fields.
type ProvenanceProfile struct {
	RequiredFields []string `yaml:"required_fields"`
	OnFailure      *Outcome `yaml:"on_failure,omitempty"`
}

// AttestationContract holds attestation freshness parameters.
type AttestationContract struct {
	Contract        string   `yaml:"contract,omitempty"`
	MaxAgeSeconds   int      `yaml:"max_age_seconds,omitempty"`
	NonceTTLSeconds int      `yaml:"nonce_ttl_seconds,omitempty"`
	OnFailure       *Outcome `yaml:"on_failure,omitempty"`
}

// Enforcement maps outcomes to planned enforcement actions.
type Enforcement struct {
	Allow []EnforcementAction `yaml:"allow,omitempty"`
	Warn  []EnforcementAction `yaml:"warn,omitempty"`
	Deny  []EnforcementAction `yaml:"deny,omitempty"`
}

// For returns the actions configured for outcome.
func (e *Enforcement) For(outcome Outcome) []EnforcementAction {
	if e == nil {
		return nil
	}
	switch outcome {
	case OutcomeAllow:
		return e.Allow
	case OutcomeWarn:
		return e.Warn
	case OutcomeDeny:
		return e.Deny
	default:
		return nil
	}
}

// EnforcementAction is a configured enforcement step.
type EnforcementAction struct {
	Type        string   `yaml:"type"`
	Message     string   `yaml:"message,omitempty"`
	Labels      []string `yaml:"labels,omitempty"`
	Context     string   `yaml:"context,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Branch      string   `yaml:"branch,omitempty"`
}

// Routing configures branch rerouting for denied pull requests.
type Routing struct {
	DevelopBotBranch      string `yaml:"develop_bot_branch,omitempty"`
	OnDenyPullRequestOpen string `yaml:"on_deny_pull_request_open,omitempty"`
}

// Gates holds pre-rule gating policies.
type Gates struct {
	AgentEligibleLabels *EligibleLabelsGate `yaml:"agent_eligible_labels,omitempty"`
}

// EligibleLabelsGate denies gated agent actions on targets that carry none
// of the eligible labels.
type EligibleLabelsGate struct {
	Labels    []string `yaml:"labels"`
	Actions   []string `yaml:"actions,omitempty"`
	OnMissing *Outcome `yaml:"on_missing,omitempty"`
}

// GatedActions returns the configured actions or the issue defaults.
func (g *EligibleLabelsGate) GatedActions() []string {
	if len(g.Actions) > 0 {
		return g.Actions
	}
	return DefaultEligibleLabelActions
}

// EligibleLabelsGate returns the configured gate, or nil.
func (p *Policy) EligibleLabelsGate() *EligibleLabelsGate {
	if p.Policies == nil {
		return nil
	}
	return p.Policies.AgentEligibleLabels
}

// MaxAgeSeconds returns the attestation max age, defaulting to 900.
func (p *Policy) MaxAgeSeconds() int {
	if p.Attestation != nil && p.Attestation.MaxAgeSeconds > 0 {
		return p.Attestation.MaxAgeSeconds
	}
	return DefaultMaxAgeSeconds
}

// NonceTTLSeconds returns the nonce reuse window, defaulting to 3600.
func (p *Policy) NonceTTLSeconds() int {
	if p.Attestation != nil && p.Attestation.NonceTTLSeconds > 0 {
		return p.Attestation.NonceTTLSeconds
	}
	return DefaultNonceTTLSeconds
}

// GlobalOnFailure returns requirements.on_failure, then
// attestation.on_failure, then deny.
func (p *Policy) GlobalOnFailure() Outcome {
	if p.Requirements != nil && p.Requirements.OnFailure != nil {
		return *p.Requirements.OnFailure
	}
	if p.Attestation != nil && p.Attestation.OnFailure != nil {
		return *p.Attestation.OnFailure
	}
	return OutcomeDeny
}

// DefaultProvenanceProfile returns the policy-wide profile name, if any.
func (p *Policy) DefaultProvenanceProfile() string {
	if p.Requirements == nil {
		return ""
	}
	return p.Requirements.DefaultProvenanceProfile
}

// ProvenanceProfile looks up a named profile.
func (p *Policy) ProvenanceProfile(name string) (ProvenanceProfile, bool) {
	if p.Requirements == nil || p.Requirements.ProvenanceProfiles == nil {
		return ProvenanceProfile{}, false
	}
	profile, ok := p.Requirements.ProvenanceProfiles[name]
	return profile, ok
}
