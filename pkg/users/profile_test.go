package users_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fennec-ai/fennec/pkg/users"
)

func TestRelationshipTier(t *testing.T) {
	assert.Equal(t, users.TierStranger, users.RelationshipTier(0))
	assert.Equal(t, users.TierAcquaintance, users.RelationshipTier(1))
	assert.Equal(t, users.TierAcquaintance, users.RelationshipTier(2))
	assert.Equal(t, users.TierFriend, users.RelationshipTier(3))
	assert.Equal(t, users.TierFriend, users.RelationshipTier(4))
	assert.Equal(t, users.TierGoodFriend, users.RelationshipTier(5))
	assert.Equal(t, users.TierGoodFriend, users.RelationshipTier(6))
	assert.Equal(t, users.TierCloseFriend, users.RelationshipTier(7))
	assert.Equal(t, users.TierCloseFriend, users.RelationshipTier(8))
	assert.Equal(t, users.TierBestFriend, users.RelationshipTier(9))
	assert.Equal(t, users.TierBestFriend, users.RelationshipTier(10))

	// Out of range clamps to the nearest tier.
	assert.Equal(t, users.TierStranger, users.RelationshipTier(-3))
	assert.Equal(t, users.TierBestFriend, users.RelationshipTier(99))
}

func TestAdjustRelationship_Clamps(t *testing.T) {
	p := users.NewProfile("Sara")

	users.AdjustRelationship(p, 5)
	assert.Equal(t, 5, p.RelationshipLevel)

	users.AdjustRelationship(p, 100)
	assert.Equal(t, 10, p.RelationshipLevel)

	users.AdjustRelationship(p, -100)
	assert.Equal(t, 0, p.RelationshipLevel)
}

func TestRecordInteraction_DeepensEveryTenth(t *testing.T) {
	p := users.NewProfile("Sara")

	for i := 0; i < 9; i++ {
		users.RecordInteraction(p)
	}
	assert.Equal(t, 9, p.InteractionCount)
	assert.Equal(t, 0, p.RelationshipLevel)

	users.RecordInteraction(p)
	assert.Equal(t, 10, p.InteractionCount)
	assert.Equal(t, 1, p.RelationshipLevel)
}

func TestAddInterest_Dedupes(t *testing.T) {
	p := users.NewProfile("Sara")

	assert.True(t, users.AddInterest(p, "astronomy"))
	assert.False(t, users.AddInterest(p, "astronomy"))
	assert.False(t, users.AddInterest(p, ""))
	assert.Equal(t, []string{"astronomy"}, p.Interests)

	assert.True(t, users.AddTrait(p, "curious"))
	assert.False(t, users.AddTrait(p, "curious"))
	assert.Equal(t, []string{"curious"}, p.PersonalityTraits)
}

func TestAddExperience_IgnoresNonPositive(t *testing.T) {
	p := users.NewProfile("Sara")

	users.AddExperience(p, 5)
	users.AddExperience(p, 0)
	users.AddExperience(p, -3)
	assert.Equal(t, 5, p.ArtificialExperience)
}
