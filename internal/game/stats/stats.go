// Package stats implements the pure stat formulas: max HP, battle stats,
// stat-stage multipliers, experience curves and experience yield.
package stats

import (
	"fmt"
	"math"
	"strings"
)

// LevelCap is the highest level reachable while the level cap is enabled.
const LevelCap = 100

// Unreachable is returned by ExperienceRequired when no further leveling may occur.
const Unreachable = math.MaxInt32

// Stage bounds.
const (
	MinStage = -6
	MaxStage = 6
)

// MaxHP computes the maximum hit points for a creature.
// Formula: floor((2*base + iv + floor(ev/4)) * level / 100) + level + 10.
//
// Precondition: base >= 1, iv >= 0, ev >= 0, level >= 1.
// Postcondition: Returns >= 1.
func MaxHP(base, level, ev, iv int) int {
	hp := (2*base+iv+ev/4)*level/100 + level + 10
	if hp < 1 {
		return 1
	}
	return hp
}

// Stat computes a non-HP battle stat.
// Formula: floor((2*base + iv + floor(ev/4)) * level / 100) + 5.
//
// Postcondition: Returns >= 1.
func Stat(base, level, ev, iv int) int {
	s := (2*base+iv+ev/4)*level/100 + 5
	if s < 1 {
		return 1
	}
	return s
}

// ClampStage limits stage to [MinStage, MaxStage].
func ClampStage(stage int) int {
	switch {
	case stage < MinStage:
		return MinStage
	case stage > MaxStage:
		return MaxStage
	default:
		return stage
	}
}

// StageMultiplier maps a stat stage to its multiplier: -6 → 2/8, 0 → 1, +6 → 8/2.
// Stages outside [-6, 6] are clamped.
func StageMultiplier(stage int) float64 {
	s := ClampStage(stage)
	if s >= 0 {
		return float64(2+s) / 2
	}
	return 2 / float64(2-s)
}

// AccuracyMultiplier maps a net accuracy stage (attacker accuracy minus
// defender evasion) to its hit-chance multiplier: -6 → 3/9, 0 → 1, +6 → 9/3.
func AccuracyMultiplier(stage int) float64 {
	s := ClampStage(stage)
	if s >= 0 {
		return float64(3+s) / 3
	}
	return 3 / float64(3-s)
}

// GrowthRate is the experience curve category of a species.
type GrowthRate string

// Growth rates, named as in the PokeAPI dataset.
const (
	Fast        GrowthRate = "fast"
	MediumFast  GrowthRate = "medium"
	MediumSlow  GrowthRate = "medium-slow"
	Slow        GrowthRate = "slow"
	Erratic     GrowthRate = "slow-then-very-fast"
	Fluctuating GrowthRate = "fast-then-very-slow"
)

var growthAliases = map[string]GrowthRate{
	"fast":                Fast,
	"medium":              MediumFast,
	"medium-fast":         MediumFast,
	"medium-slow":         MediumSlow,
	"slow":                Slow,
	"erratic":             Erratic,
	"slow-then-very-fast": Erratic,
	"fluctuating":         Fluctuating,
	"fast-then-very-slow": Fluctuating,
}

// ParseGrowthRate normalises a growth-rate name ("Medium Slow", "erratic", ...).
//
// Postcondition: Returns a known GrowthRate or an error.
func ParseGrowthRate(s string) (GrowthRate, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
	if g, ok := growthAliases[key]; ok {
		return g, nil
	}
	return "", fmt.Errorf("stats: unknown growth rate %q", s)
}

// ExperienceRequired returns the experience a creature at level must
// accumulate to reach level+1 for the given growth rate.
// An unknown growth rate uses the medium-fast curve.
//
// Postcondition: Returns Unreachable when level >= LevelCap and the cap is
// enabled; otherwise returns >= 1 and is strictly increasing in level.
func ExperienceRequired(rate GrowthRate, level int, levelCapDisabled bool) int {
	if level >= LevelCap && !levelCapDisabled {
		return Unreachable
	}
	if level < 1 {
		level = 1
	}
	xp := curve(rate, level)
	if xp < 1 {
		return 1
	}
	return xp
}

func curve(rate GrowthRate, level int) int {
	n := level
	cube := n * n * n
	switch rate {
	case Fast:
		return 4 * cube / 5
	case MediumSlow:
		return 6*cube/5 - 15*n*n + 100*n - 140
	case Slow:
		return 5 * cube / 4
	case Erratic:
		switch {
		case n < 50:
			return cube * (100 - n) / 50
		case n < 68:
			return cube * (150 - n) / 100
		case n < 98:
			return cube * ((1911 - 10*n) / 3) / 500
		default:
			// Past the level cap the erratic curve would shrink; keep it growing.
			if n > 100 {
				return cube * 60 / 100
			}
			return cube * (160 - n) / 100
		}
	case Fluctuating:
		switch {
		case n < 15:
			return cube * ((n+1)/3 + 24) / 50
		case n < 36:
			return cube * (n + 14) / 50
		default:
			return cube * (n/2 + 32) / 50
		}
	default:
		return cube
	}
}

// ExperienceYield is the experience awarded for defeating a creature with the
// given base experience at the given level: floor(base * level / 7).
func ExperienceYield(baseExperience, level int) int {
	if baseExperience < 0 || level < 1 {
		return 0
	}
	return baseExperience * level / 7
}
