// Package simulator generates deterministic synthetic event timelines,
// replays them through the decision engine and aggregates the results.
package simulator

import (
	"slices"

	"github.com/safedep/covenant/core/policy"
)

// Simulator event types.
const (
	TypeCodeEvolution       = "code_evolution"
	TypeBranchOperation     = "branch_operation"
	TypeIssueBug            = "issue_bug"
	TypeIssueFeatureRequest = "issue_feature_request"
	TypeDiscussion          = "discussion"
	TypeErrorRegression     = "error_regression"
	TypeRelease             = "release"
	TypeMaintenance         = "maintenance"
)

// CatalogEntry describes one synthetic event type.
type CatalogEntry struct {
	Type          string
	Label         string
	DefaultAction string
	DefaultLabels []string
}

// Catalog lists the event types in their canonical order.
var Catalog = []CatalogEntry{
	{TypeCodeEvolution, "Code Evolution", policy.ActionPullRequestUpdate, []string{"code-change", "thread:agent"}},
	{TypeBranchOperation, "Branch Operation", policy.ActionPullRequestOpen, []string{"branch-op", "thread:agent"}},
	{TypeIssueBug, "Issue: Bug", policy.ActionIssueOpen, []string{"bug", "agent-friendly", "thread:human"}},
	{TypeIssueFeatureRequest, "Issue: Feature Request", policy.ActionIssueOpen, []string{"feature-request", "thread:human"}},
	{TypeDiscussion, "Discussion", policy.ActionInterveneHumanThread, []string{"thread:human"}},
	{TypeErrorRegression, "Error Regression", policy.ActionIssueComment, []string{"regression", "thread:human"}},
	{TypeRelease, "Release", policy.ActionPullRequestMerge, []string{"release", "thread:agent"}},
	{TypeMaintenance, "Maintenance", policy.ActionMaintenanceCleanup, []string{"maintenance", "thread:agent"}},
}

// LookupType returns the catalog entry for an event type.
func LookupType(simType string) (CatalogEntry, bool) {
	i := slices.IndexFunc(Catalog, func(e CatalogEntry) bool { return e.Type == simType })
	if i < 0 {
		return CatalogEntry{}, false
	}
	return Catalog[i], true
}

// Profile names a bundle of event and actor weights.
type Profile string

const (
	ProfileBalanced     Profile = "balanced"
	ProfileChurn        Profile = "churn"
	ProfileStrictStress Profile = "strict-stress"
)

// Profiles lists the known profiles.
var Profiles = []Profile{ProfileBalanced, ProfileChurn, ProfileStrictStress}

// IsKnown returns true for a defined profile.
func (p Profile) IsKnown() bool {
	return slices.Contains(Profiles, p)
}

var profileEventWeights = map[Profile]Weights{
	ProfileBalanced: {
		{Value: TypeCodeEvolution, Weight: 0.2},
		{Value: TypeBranchOperation, Weight: 0.1},
		{Value: TypeIssueBug, Weight: 0.14},
		{Value: TypeIssueFeatureRequest, Weight: 0.12},
		{Value: TypeDiscussion, Weight: 0.1},
		{Value: TypeErrorRegression, Weight: 0.11},
		{Value: TypeRelease, Weight: 0.11},
		{Value: TypeMaintenance, Weight: 0.12},
	},
	ProfileChurn: {
		{Value: TypeCodeEvolution, Weight: 0.26},
		{Value: TypeBranchOperation, Weight: 0.2},
		{Value: TypeIssueBug, Weight: 0.08},
		{Value: TypeIssueFeatureRequest, Weight: 0.06},
		{Value: TypeDiscussion, Weight: 0.05},
		{Value: TypeErrorRegression, Weight: 0.19},
		{Value: TypeRelease, Weight: 0.1},
		{Value: TypeMaintenance, Weight: 0.06},
	},
	ProfileStrictStress: {
		{Value: TypeCodeEvolution, Weight: 0.17},
		{Value: TypeBranchOperation, Weight: 0.16},
		{Value: TypeIssueBug, Weight: 0.17},
		{Value: TypeIssueFeatureRequest, Weight: 0.13},
		{Value: TypeDiscussion, Weight: 0.08},
		{Value: TypeErrorRegression, Weight: 0.14},
		{Value: TypeRelease, Weight: 0.07},
		{Value: TypeMaintenance, Weight: 0.08},
	},
}

var profileActorWeights = map[Profile]Weights{
	ProfileBalanced:     {{Value: "human", Weight: 0.45}, {Value: "agent", Weight: 0.45}, {Value: "manager", Weight: 0.1}},
	ProfileChurn:        {{Value: "human", Weight: 0.28}, {Value: "agent", Weight: 0.64}, {Value: "manager", Weight: 0.08}},
	ProfileStrictStress: {{Value: "human", Weight: 0.2}, {Value: "agent", Weight: 0.75}, {Value: "manager", Weight: 0.05}},
}

// EventWeights returns a copy of the profile's event type weights.
func (p Profile) EventWeights() Weights {
	return slices.Clone(profileEventWeights[p])
}

// ActorWeights returns a copy of the profile's actor kind weights.
func (p Profile) ActorWeights() Weights {
	return slices.Clone(profileActorWeights[p])
}

// ActorPool lists the synthetic actor ids per kind.
var ActorPool = map[policy.ActorKind][]string{
	policy.ActorHuman:   {"alice", "bob", "carol", "drew"},
	policy.ActorAgent:   {"ci-bot[bot]", "review-bot[bot]", "ops-bot[bot]"},
	policy.ActorManager: {"stoa-manager[bot]", "governance-bot[bot]"},
}

// TargetBranches lists the synthetic branches.
var TargetBranches = []string{"main", "develop", "develop-bot", "release", "feature-x"}

// RepositoryVisibilities lists the synthetic repository visibilities.
var RepositoryVisibilities = []string{"public", "private"}

// eligibleLabels are stripped by the ineligible label fault.
var eligibleLabels = []string{"agent-friendly", "good-first-bot-issue"}

const (
	simRepository         = "acme/project"
	// SimPolicyHashSentinel stands in for the policy hash in generated
	// attestations, which are built before any policy is known.
	SimPolicyHashSentinel = "__SIM_POLICY_HASH__"
	simSignature          = "simulated-signature"
)
