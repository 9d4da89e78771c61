// Package enforcement turns decisions into the enforcement steps a policy
// configures for them.
package enforcement

import (
	"slices"
	"strings"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/core/security"
)

const (
	// TargetIssueOrPullRequest is where planned comments are posted.
	TargetIssueOrPullRequest = "issue_or_pull_request"

	defaultStatusDescription = "Covenant policy decision: ${decision}"
)

// Action is one planned enforcement step.
type Action struct {
	Type        string   `json:"type"`
	Message     string   `json:"message,omitempty"`
	Target      string   `json:"target,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Context     string   `json:"context,omitempty"`
	Description string   `json:"description,omitempty"`
	Branch      string   `json:"branch,omitempty"`
}

// Build returns the enforcement plan for d. Actions follow the order
// configured for the decision's outcome; a denied pull request open under
// reroute routing gets a trailing reroute step.
func Build(p *policy.Policy, d *security.Decision, ev *events.Event) []Action {
	plan := []Action{}
	if p == nil || d == nil || ev == nil {
		return plan
	}

	for _, configured := range p.Enforcement.For(d.Decision) {
		action := Action{Type: configured.Type}

		switch configured.Type {
		case policy.EnforceComment:
			action.Message = render(configured.Message, d, ev)
			action.Target = TargetIssueOrPullRequest
		case policy.EnforceLabel:
			action.Labels = slices.Clone(configured.Labels)
		case policy.EnforceFailStatus:
			description := configured.Description
			if description == "" {
				description = defaultStatusDescription
			}
			action.Context = configured.Context
			action.Description = render(description, d, ev)
		case policy.EnforceRerouteToBranch:
			action.Branch = configured.Branch
		}

		plan = append(plan, action)
	}

	if shouldReroute(p, d, ev) {
		plan = append(plan, Action{
			Type:   policy.EnforceRerouteToBranch,
			Branch: p.Routing.DevelopBotBranch,
		})
	}

	return plan
}

func shouldReroute(p *policy.Policy, d *security.Decision, ev *events.Event) bool {
	return d.Decision == policy.OutcomeDeny &&
		ev.Action == policy.ActionPullRequestOpen &&
		p.Routing != nil &&
		p.Routing.OnDenyPullRequestOpen == "reroute" &&
		p.Routing.DevelopBotBranch != ""
}

func render(template string, d *security.Decision, ev *events.Event) string {
	return strings.NewReplacer(
		"${decision}", d.Decision.String(),
		"${action}", ev.Action,
		"${actor}", ev.Actor.ID,
		"${reason_codes}", strings.Join(d.ReasonCodes, ","),
	).Replace(template)
}
