package policy

import "slices"

// AttestationContractV1 is the only attestation envelope version understood.
const AttestationContractV1 = "covenant.attestation.v1"

// ActorKind classifies who performs an action.
type ActorKind string

const (
	ActorHuman   ActorKind = "human"
	ActorAgent   ActorKind = "agent"
	ActorManager ActorKind = "manager"
)

// ActorKinds is the fixed scan order for actor profile resolution.
var ActorKinds = []ActorKind{ActorHuman, ActorAgent, ActorManager}

// IsKnown returns true for human, agent and manager.
func (k ActorKind) IsKnown() bool {
	return slices.Contains(ActorKinds, k)
}

// IsPrivileged returns true for kinds that must never be trusted from
// event metadata alone.
func (k ActorKind) IsPrivileged() bool {
	return k == ActorManager
}

// ThreadMode describes who a conversation thread belongs to.
type ThreadMode string

const (
	ThreadHuman ThreadMode = "human"
	ThreadAgent ThreadMode = "agent"
	ThreadMixed ThreadMode = "mixed"
)

// ThreadModes lists the valid thread modes.
var ThreadModes = []ThreadMode{ThreadHuman, ThreadAgent, ThreadMixed}

// Canonical actions.
const (
	ActionIssueOpen                = "issue.open"
	ActionIssueComment             = "issue.comment"
	ActionIssueLabel               = "issue.label"
	ActionIssueSolve               = "issue.solve"
	ActionPullRequestOpen          = "pull_request.open"
	ActionPullRequestUpdate        = "pull_request.update"
	ActionPullRequestReviewSubmit  = "pull_request.review.submit"
	ActionPullRequestReviewApprove = "pull_request.review.approve"
	ActionPullRequestMerge         = "pull_request.merge"
	ActionInterveneHumanThread     = "conversation.intervene_human_thread"
	ActionInterveneAgentThread     = "conversation.intervene_agent_thread"
	ActionMaintenanceCleanup       = "maintenance.cleanup"
	ActionRoutingToDevelopBot      = "routing.to_develop_bot"
)

// Actions is the canonical action vocabulary.
var Actions = []string{
	ActionIssueOpen,
	ActionIssueComment,
	ActionIssueLabel,
	ActionIssueSolve,
	ActionPullRequestOpen,
	ActionPullRequestUpdate,
	ActionPullRequestReviewSubmit,
	ActionPullRequestReviewApprove,
	ActionPullRequestMerge,
	ActionInterveneHumanThread,
	ActionInterveneAgentThread,
	ActionMaintenanceCleanup,
	ActionRoutingToDevelopBot,
}

// IsCanonicalAction returns true if action belongs to the vocabulary.
func IsCanonicalAction(action string) bool {
	return slices.Contains(Actions, action)
}

// Provenance evidence fields.
const (
	EvidenceModel        = "model"
	EvidenceProvider     = "provider"
	EvidencePromptRecord = "prompt_record"
	EvidenceTestProof    = "test_proof"
)

// EvidenceFields lists the provenance fields in canonical order.
var EvidenceFields = []string{EvidenceModel, EvidenceProvider, EvidencePromptRecord, EvidenceTestProof}

// DefaultEligibleLabelActions are gated by agent_eligible_labels when the
// gate does not list its own actions.
var DefaultEligibleLabelActions = []string{
	ActionIssueOpen,
	ActionIssueComment,
	ActionIssueLabel,
	ActionIssueSolve,
}

// AttestationMode states when a rule needs a signed attestation.
type AttestationMode string

const (
	AttestationOptional  AttestationMode = "optional"
	AttestationRequired  AttestationMode = "required"
	AttestationForAgents AttestationMode = "for_agents"
)

// Enforcement action types.
const (
	EnforceComment          = "comment"
	EnforceLabel            = "label"
	EnforceClosePullRequest = "close_pull_request"
	EnforceDeleteBranch     = "delete_branch"
	EnforceRerouteToBranch  = "reroute_to_branch"
	EnforceFailStatus       = "fail_status"
)

// EnforcementTypes lists the supported enforcement action types.
var EnforcementTypes = []string{
	EnforceComment,
	EnforceLabel,
	EnforceClosePullRequest,
	EnforceDeleteBranch,
	EnforceRerouteToBranch,
	EnforceFailStatus,
}
