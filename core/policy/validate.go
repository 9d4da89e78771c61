package policy

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("policy validation failed")

var specVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Issue is one structural problem in a policy document.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports every issue found in a policy.
type ValidationError struct {
	Issues []Issue
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s with %d error(s)", ErrValidation.Error(), len(e.Issues))
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type validator struct {
	issues []Issue
}

func (v *validator) add(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a decoded policy for structural problems that typed
// decoding cannot catch.
func Validate(p *Policy) error {
	v := &validator{}

	switch {
	case p.SpecVersion == "":
		v.add("spec_version", "is required")
	case !specVersionPattern.MatchString(p.SpecVersion):
		v.add("spec_version", "must be semantic version format x.y.z")
	case !strings.HasPrefix(p.SpecVersion, "1."):
		v.add("spec_version", "major version must be 1")
	}

	if !p.Defaults.Unmatched.Valid() {
		v.add("defaults.unmatched", "must be one of: allow, warn, deny")
	}

	v.actors(p.Actors)
	v.rules(p.Rules)
	v.requirements(p.Requirements)
	v.attestation(p.Attestation)
	v.enforcement(p.Enforcement)
	v.routing(p.Routing)
	v.gates(p.Policies)

	if p.Surfaces != nil {
		for _, action := range p.Surfaces.Actions {
			if !IsCanonicalAction(action) {
				v.add("surfaces.actions", "contains unknown action '%s'", action)
			}
		}
	}

	if len(v.issues) > 0 {
		return &ValidationError{Issues: v.issues}
	}
	return nil
}

func (v *validator) actors(actors Actors) {
	for _, kind := range ActorKinds {
		path := fmt.Sprintf("actors.%ss", kind)
		for i, profile := range actors.ProfilesFor(kind) {
			profilePath := fmt.Sprintf("%s[%d]", path, i)
			if profile.ID == "" {
				v.add(profilePath+".id", "is required")
			}
			if len(profile.Match.Usernames) == 0 || slices.Contains(profile.Match.Usernames, "") {
				v.add(profilePath+".match.usernames", "must be a non-empty array of strings")
			}
			if profile.Verification == nil {
				continue
			}
			if kind != ActorAgent {
				v.add(profilePath+".verification", "is only supported for agents")
			}
			if profile.Verification.Type != "ed25519" {
				v.add(profilePath+".verification.type", "must be 'ed25519'")
			}
			if profile.Verification.PublicKey == "" {
				v.add(profilePath+".verification.public_key", "is required")
			}
		}
	}
}

func (v *validator) rules(rules []Rule) {
	if len(rules) == 0 {
		v.add("rules", "must be a non-empty array")
		return
	}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		path := fmt.Sprintf("rules[%d]", i)
		if rule.ID == "" {
			v.add(path+".id", "is required")
		} else if seen[rule.ID] {
			v.add(path+".id", "must be unique")
		}
		seen[rule.ID] = true

		if !isValidActionPattern(rule.Action) {
			v.add(path+".action", "must be a canonical action, prefix wildcard, or '*'")
		}
		if !rule.Outcome.Valid() {
			v.add(path+".outcome", "must be one of: allow, warn, deny")
		}

		for key, value := range rule.Target {
			switch key {
			case "branch":
				if value == "" {
					v.add(path+".target.branch", "must be a non-empty string")
				}
			case "thread_mode":
				if !slices.Contains(ThreadModes, ThreadMode(value)) {
					v.add(path+".target.thread_mode", "must be one of: human, agent, mixed")
				}
			default:
				v.add(path+".target."+key, "is not supported")
			}
		}

		if c := rule.Conditions; c != nil {
			if c.LabelsAny != nil && len(c.LabelsAny) == 0 {
				v.add(path+".conditions.labels_any", "must be a non-empty array of strings")
			}
			if c.LabelsAll != nil && len(c.LabelsAll) == 0 {
				v.add(path+".conditions.labels_all", "must be a non-empty array of strings")
			}
			if c.RepositoryVisibility != "" && c.RepositoryVisibility != "public" && c.RepositoryVisibility != "private" {
				v.add(path+".conditions.repository_visibility", "must be 'public' or 'private'")
			}
			if c.ThreadMode != "" && !slices.Contains(ThreadModes, ThreadMode(c.ThreadMode)) {
				v.add(path+".conditions.thread_mode", "must be one of: human, agent, mixed")
			}
		}

		if r := rule.Requirements; r != nil {
			switch r.Attestation {
			case "", AttestationOptional, AttestationRequired, AttestationForAgents:
			default:
				v.add(path+".requirements.attestation", "must be one of: required, optional, for_agents")
			}
		}
	}
}

func isValidActionPattern(p ActionPattern) bool {
	if p.IsWildcard() {
		return true
	}
	if prefix, ok := p.Prefix(); ok {
		return slices.ContainsFunc(Actions, func(action string) bool {
			return strings.HasPrefix(action, prefix+".")
		})
	}
	return IsCanonicalAction(p.String())
}

func (v *validator) requirements(r *Requirements) {
	if r == nil {
		return
	}
	for name, profile := range r.ProvenanceProfiles {
		path := "requirements.provenance_profiles." + name
		if len(profile.RequiredFields) == 0 {
			v.add(path+".required_fields", "must be a non-empty array of strings")
		}
		for _, field := range profile.RequiredFields {
			if !slices.Contains(EvidenceFields, field) {
				v.add(path+".required_fields", "contains unknown field '%s'", field)
			}
		}
	}
}

func (v *validator) attestation(a *AttestationContract) {
	if a == nil {
		return
	}
	if a.Contract != "" && a.Contract != AttestationContractV1 {
		v.add("attestation.contract", "must be %s", AttestationContractV1)
	}
	if a.MaxAgeSeconds < 0 {
		v.add("attestation.max_age_seconds", "must be a positive integer")
	}
	if a.NonceTTLSeconds < 0 {
		v.add("attestation.nonce_ttl_seconds", "must be a positive integer")
	}
}

func (v *validator) enforcement(e *Enforcement) {
	if e == nil {
		return
	}
	for _, outcome := range Outcomes {
		for i, action := range e.For(outcome) {
			path := fmt.Sprintf("enforcement.%s[%d]", outcome, i)
			switch action.Type {
			case EnforceComment:
				if action.Message == "" {
					v.add(path+".message", "is required")
				}
			case EnforceLabel:
				if len(action.Labels) == 0 {
					v.add(path+".labels", "must be a non-empty array of strings")
				}
			case EnforceRerouteToBranch:
				if action.Branch == "" {
					v.add(path+".branch", "is required")
				}
			case EnforceFailStatus:
				if action.Context == "" {
					v.add(path+".context", "is required")
				}
			case EnforceClosePullRequest, EnforceDeleteBranch:
			default:
				v.add(path+".type", "must be one of: %s", strings.Join(EnforcementTypes, ", "))
			}
		}
	}
}

func (v *validator) routing(r *Routing) {
	if r == nil {
		return
	}
	switch r.OnDenyPullRequestOpen {
	case "", "none", "reroute":
	default:
		v.add("routing.on_deny_pull_request_open", "must be one of: none, reroute")
	}
}

func (v *validator) gates(g *Gates) {
	if g == nil || g.AgentEligibleLabels == nil {
		return
	}
	gate := g.AgentEligibleLabels
	if len(gate.Labels) == 0 {
		v.add("policies.agent_eligible_labels.labels", "must be a non-empty array of strings")
	}
	for _, action := range gate.Actions {
		if !IsCanonicalAction(action) {
			v.add("policies.agent_eligible_labels.actions", "contains unknown action '%s'", action)
		}
	}
}

// missingKeys reports required keys absent from the generic document and
// attestation windows that are present but not positive. Typed decoding
// cannot tell an omitted outcome from "allow", or an explicit 0 from an
// omitted window.
func missingKeys(root map[string]any) []Issue {
	var issues []Issue

	defaults, _ := root["defaults"].(map[string]any)
	if _, ok := defaults["unmatched"]; !ok {
		issues = append(issues, Issue{Path: "defaults.unmatched", Message: "is required"})
	}

	rules, _ := root["rules"].([]any)
	for i, item := range rules {
		rule, ok := item.(map[string]any)
		if !ok {
			issues = append(issues, Issue{Path: fmt.Sprintf("rules[%d]", i), Message: "must be an object"})
			continue
		}
		for _, key := range []string{"actor", "action", "outcome"} {
			if _, ok := rule[key]; !ok {
				issues = append(issues, Issue{Path: fmt.Sprintf("rules[%d].%s", i, key), Message: "is required"})
			}
		}
	}

	attestation, _ := root["attestation"].(map[string]any)
	for _, key := range []string{"max_age_seconds", "nonce_ttl_seconds"} {
		value, ok := attestation[key]
		if ok && !isPositiveInteger(value) {
			issues = append(issues, Issue{Path: "attestation." + key, Message: "must be a positive integer"})
		}
	}

	return issues
}

// isPositiveInteger reports whether a decoded YAML or JSON scalar is a
// whole number above zero.
func isPositiveInteger(v any) bool {
	switch n := v.(type) {
	case int:
		return n > 0
	case int64:
		return n > 0
	case uint64:
		return n > 0
	case float64:
		return n > 0 && n == math.Trunc(n)
	default:
		return false
	}
}
