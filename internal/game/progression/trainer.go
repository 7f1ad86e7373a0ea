package progression

import "github.com/cory-johannsen/creaturebattle/internal/game/dex"

// TierExperience is the trainer experience earned per defeated or caught tier.
var TierExperience = map[dex.Tier]int{
	dex.Normal:    10,
	dex.Baby:      15,
	dex.Ultra:     25,
	dex.Legendary: 50,
	dex.Mythical:  100,
}

// TrainerLevelSize is the trainer experience per trainer level.
const TrainerLevelSize = 100

// Trainer is the player's own progression, which feeds encounter generation.
type Trainer struct {
	XP int
}

// Level is 1 + XP / TrainerLevelSize.
func (t *Trainer) Level() int {
	return 1 + t.XP/TrainerLevelSize
}

// Gain awards the trainer experience for tier, halved in move-choice mode,
// and returns the amount awarded. Unknown tiers count as Normal.
func (t *Trainer) Gain(tier dex.Tier, choicePenalty bool) int {
	xp, ok := TierExperience[tier]
	if !ok {
		xp = TierExperience[dex.Normal]
	}
	if choicePenalty {
		xp /= 2
	}
	t.XP += xp
	return xp
}
