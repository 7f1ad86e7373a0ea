// Package combat resolves a single move use by one creature against another:
// accuracy, damage, critical hits and side effects.
package combat

import "github.com/cory-johannsen/creaturebattle/internal/game/dex"

// Critical-hit and same-type bonus multipliers.
const (
	CritMultiplier = 1.5
	STABMultiplier = 1.5
)

// critOdds maps a move's crit ratio to the chance of a critical hit, as num/den.
var critOdds = [...][2]int{
	1: {1, 24},
	2: {1, 8},
	3: {1, 2},
}

// CritChance returns the critical-hit probability of ratio as num/den.
// Ratios below 1 use the baseline; ratios of 4 or more always crit.
func CritChance(ratio int) (num, den int) {
	switch {
	case ratio < 1:
		ratio = 1
	case ratio >= len(critOdds):
		return 1, 1
	}
	odds := critOdds[ratio]
	return odds[0], odds[1]
}

// LevelFactor is the level scaling of the damage formula: (2*level/5 + 2) / 50.
func LevelFactor(level int) float64 {
	return (2*float64(level)/5 + 2) / 50
}

// AttackOutcome is the result of one move use.
type AttackOutcome struct {
	// Move is the name of the move actually used.
	Move string
	// Fallback is true when the chosen move could not be resolved and the
	// substitute attack was used instead.
	Fallback bool
	// Acted is false when the attacker lost its turn.
	Acted    bool
	Hit      bool
	Critical bool
	// Effectiveness is the combined type multiplier; 1 for status and fixed-damage moves.
	Effectiveness float64
	Damage        int
	// Fainted reports whether the defender fainted from this attack.
	Fainted  bool
	Messages []string
}

// EffectivenessMessage returns the battle-log line for eff, or "".
func EffectivenessMessage(eff float64) string {
	switch {
	case eff == 0:
		return "It doesn't affect the target..."
	case eff > 1:
		return "It's super effective!"
	case eff < 1:
		return "It's not very effective..."
	default:
		return ""
	}
}

// attackStats returns the attacking and defending stat names for a category.
func attackStats(c dex.Category) (atk, def string) {
	if c == dex.Special {
		return "spa", "spd"
	}
	return "atk", "def"
}
