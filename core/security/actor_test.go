package security

import (
	"testing"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveActor(t *testing.T) {
	p := &policy.Policy{
		Actors: policy.Actors{
			Humans:   []policy.ActorProfile{{ID: "maintainers", Match: policy.ActorMatch{Usernames: []string{"alice"}}}},
			Agents:   []policy.ActorProfile{{ID: "ci-agents", Match: policy.ActorMatch{Usernames: []string{"ci-bot[bot]", "alice"}}}},
			Managers: []policy.ActorProfile{{ID: "stoa", Match: policy.ActorMatch{Usernames: []string{"stoa-manager[bot]"}}}},
		},
	}

	cases := []struct {
		name        string
		claim       events.Actor
		wantKind    policy.ActorKind
		wantProfile string
	}{
		{"username match", events.Actor{ID: "ci-bot[bot]", Kind: policy.ActorHuman}, policy.ActorAgent, "ci-agents"},
		{"human group scanned first", events.Actor{ID: "alice", Kind: policy.ActorAgent}, policy.ActorHuman, "maintainers"},
		{"profile id match", events.Actor{ID: "stoa"}, policy.ActorManager, "stoa"},
		{"manager via profile", events.Actor{ID: "stoa-manager[bot]", Kind: policy.ActorManager}, policy.ActorManager, "stoa"},
		{"unmatched agent claim trusted", events.Actor{ID: "rogue-bot", Kind: policy.ActorAgent}, policy.ActorAgent, ""},
		{"unmatched human claim trusted", events.Actor{ID: "zed", Kind: policy.ActorHuman}, policy.ActorHuman, ""},
		{"unmatched manager claim rejected", events.Actor{ID: "mallory", Kind: policy.ActorManager}, policy.ActorHuman, ""},
		{"unknown kind falls back", events.Actor{ID: "x", Kind: "robot"}, policy.ActorHuman, ""},
		{"missing kind falls back", events.Actor{ID: "x"}, policy.ActorHuman, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor := ResolveActor(p, tc.claim)

			assert.Equal(t, tc.claim.ID, actor.ID)
			assert.Equal(t, tc.wantKind, actor.Kind)
			if tc.wantProfile == "" {
				assert.Nil(t, actor.Profile)
				assert.Empty(t, actor.Ref().ProfileID)
			} else {
				require.NotNil(t, actor.Profile)
				assert.Equal(t, tc.wantProfile, actor.Profile.ID)
				assert.Equal(t, tc.wantProfile, actor.Ref().ProfileID)
			}
		})
	}
}
