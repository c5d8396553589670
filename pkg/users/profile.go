package users

import (
	"time"

	"github.com/fennec-ai/fennec/pkg/store"
)

// Relationship tiers, mapped from the relationship level.
const (
	TierStranger     = "stranger"
	TierAcquaintance = "acquaintance"
	TierFriend       = "friend"
	TierGoodFriend   = "good_friend"
	TierCloseFriend  = "close_friend"
	TierBestFriend   = "best_friend"
)

// NewProfile creates a stranger profile for name.
func NewProfile(name string) *store.Profile {
	now := time.Now()
	return &store.Profile{
		Name:              name,
		Interests:         []string{},
		PersonalityTraits: []string{},
		RelationshipLevel: 0,
		CreatedAt:         now,
		LastInteraction:   now,
	}
}

// RelationshipTier maps a relationship level to its named tier. Levels
// outside [0, 10] clamp to the nearest tier.
func RelationshipTier(level int) string {
	switch {
	case level <= 0:
		return TierStranger
	case level <= 2:
		return TierAcquaintance
	case level <= 4:
		return TierFriend
	case level <= 6:
		return TierGoodFriend
	case level <= 8:
		return TierCloseFriend
	default:
		return TierBestFriend
	}
}

// RecordInteraction bumps the interaction count and the last interaction
// time. Every tenth interaction deepens the relationship by one level.
func RecordInteraction(p *store.Profile) {
	p.InteractionCount++
	p.LastInteraction = time.Now()
	if p.InteractionCount%10 == 0 {
		AdjustRelationship(p, 1)
	}
}

// AdjustRelationship shifts the relationship level by delta, clamped to
// [0, 10].
func AdjustRelationship(p *store.Profile, delta int) {
	level := p.RelationshipLevel + delta
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}
	p.RelationshipLevel = level
}

// AddInterest records an interest, ignoring duplicates.
func AddInterest(p *store.Profile, interest string) bool {
	if interest == "" {
		return false
	}
	for _, existing := range p.Interests {
		if existing == interest {
			return false
		}
	}
	p.Interests = append(p.Interests, interest)
	return true
}

// AddTrait records a personality trait, ignoring duplicates.
func AddTrait(p *store.Profile, trait string) bool {
	if trait == "" {
		return false
	}
	for _, existing := range p.PersonalityTraits {
		if existing == trait {
			return false
		}
	}
	p.PersonalityTraits = append(p.PersonalityTraits, trait)
	return true
}

// AddExperience accrues artificial experience points earned through
// conversations and lessons.
func AddExperience(p *store.Profile, points int) {
	if points > 0 {
		p.ArtificialExperience += points
	}
}
