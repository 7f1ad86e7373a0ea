// Package encounter generates wild creatures: weighted tier selection,
// species and level choice, and individual values.
package encounter

import "github.com/cory-johannsen/creaturebattle/internal/game/dex"

// BaseWeights is the starting tier distribution, in percent.
var BaseWeights = map[dex.Tier]float64{
	dex.Baby:      2,
	dex.Normal:    92.3,
	dex.Ultra:     5,
	dex.Legendary: 0.5,
	dex.Mythical:  0.2,
}

// UnlockLevels is the creature level required before a tier can appear.
var UnlockLevels = map[dex.Tier]int{
	dex.Ultra:     30,
	dex.Legendary: 50,
	dex.Mythical:  75,
}

// Player-level adjustment.
const (
	playerLevelThreshold = 10
	playerLevelShift     = 5.0
)

// TierWeights computes the tier distribution for one encounter.
//
// The review ratio totalReviews/dailyAverage (0 when dailyAverage <= 0) shifts
// weight out of Normal: below 0.4 every other tier is folded into Normal; up to
// 0.6 Baby gains 2; up to 0.8 Ultra gains 3; up to 1.0 Legendary gains 2 and
// Ultra 3. Tiers whose unlock level exceeds creatureLevel are then set to 0.
// A player above level 10 moves 5 points from Normal to every other tier still
// in the table. The result is scaled to sum to 100.
//
// Postcondition: every weight is >= 0 and the weights sum to 100.
func TierWeights(totalReviews, dailyAverage, playerLevel, creatureLevel int) map[dex.Tier]float64 {
	w := make(map[dex.Tier]float64, len(BaseWeights))
	for t, v := range BaseWeights {
		w[t] = v
	}

	ratio := 0.0
	if dailyAverage > 0 {
		ratio = float64(totalReviews) / float64(dailyAverage)
	}
	switch {
	case ratio < 0.4:
		for _, t := range dex.Tiers {
			if t != dex.Normal {
				w[dex.Normal] += w[t]
				delete(w, t)
			}
		}
	case ratio < 0.6:
		w[dex.Baby] += 2
		w[dex.Normal] -= 2
	case ratio < 0.8:
		w[dex.Ultra] += 3
		w[dex.Normal] -= 3
	case ratio < 1.0:
		w[dex.Legendary] += 2
		w[dex.Ultra] += 3
		w[dex.Normal] -= 5
	}

	for _, t := range dex.Tiers {
		if lvl, ok := UnlockLevels[t]; ok && creatureLevel < lvl {
			w[t] = 0
		}
	}

	if playerLevel > playerLevelThreshold {
		for t := range w {
			if t == dex.Normal {
				w[t] = max(w[t]-playerLevelShift, 0)
			} else {
				w[t] += playerLevelShift
			}
		}
	}

	return normalize(w)
}

func normalize(w map[dex.Tier]float64) map[dex.Tier]float64 {
	out := make(map[dex.Tier]float64, len(dex.Tiers))
	total := 0.0
	for _, v := range w {
		total += max(v, 0)
	}
	for _, t := range dex.Tiers {
		out[t] = 0
	}
	if total <= 0 {
		out[dex.Normal] = 100
		return out
	}
	for t, v := range w {
		out[t] = max(v, 0) / total * 100
	}
	return out
}
