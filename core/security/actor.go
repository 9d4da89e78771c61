package security

import (
	"slices"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
)

// ActorContext is the trusted view of an event's actor.
type ActorContext struct {
	ID      string
	Kind    policy.ActorKind
	Profile *policy.ActorProfile
}

// Ref returns the decision representation of the actor.
func (a ActorContext) Ref() ActorRef {
	ref := ActorRef{ID: a.ID, Kind: a.Kind}
	if a.Profile != nil {
		ref.ProfileID = a.Profile.ID
	}
	return ref
}

// ResolveActor maps the claimed actor to a policy-declared profile. Profiles
// are scanned human, agent, manager; the first profile whose id or
// usernames contain the actor id wins. Without a profile match only the
// non-privileged kinds are taken from the claim, anything else resolves to
// human.
func ResolveActor(p *policy.Policy, claim events.Actor) ActorContext {
	for _, kind := range policy.ActorKinds {
		profiles := p.Actors.ProfilesFor(kind)
		for i := range profiles {
			profile := &profiles[i]
			if profile.ID == claim.ID || slices.Contains(profile.Match.Usernames, claim.ID) {
				return ActorContext{ID: claim.ID, Kind: kind, Profile: profile}
			}
		}
	}

	if claim.Kind.IsKnown() && !claim.Kind.IsPrivileged() {
		return ActorContext{ID: claim.ID, Kind: claim.Kind}
	}

	return ActorContext{ID: claim.ID, Kind: policy.ActorHuman}
}
