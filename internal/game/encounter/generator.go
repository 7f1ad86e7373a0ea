package encounter

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
)

// ErrEncounterExhausted is returned when no eligible wild creature could be chosen.
var ErrEncounterExhausted = errors.New("encounter exhausted")

// Wild creature generation constants.
const (
	levelSpread = 3
	shinyOdds   = 4096
	NoAbility   = "No Ability"
)

// Dex is the dataset view the generator needs.
type Dex interface {
	SpeciesByID(id int) (*dex.Species, error)
	TierIDs(t dex.Tier) []int
	LearnableMoves(species string, level, max int, src dice.Source) ([]string, error)
}

// Request carries the player progress inputs of one encounter.
type Request struct {
	TotalReviews  int
	DailyAverage  int
	PlayerLevel   int
	CreatureLevel int
}

// Generator picks wild creatures.
// It is not safe for concurrent use; the caller must serialise access.
type Generator struct {
	dex              Dex
	src              dice.Source
	logger           *zap.Logger
	maxAttempts      int
	levelCapDisabled bool
}

// NewGenerator creates a Generator that makes at most maxAttempts random picks
// before falling back to a deterministic scan.
//
// Precondition: d, src and logger must be non-nil; maxAttempts >= 1.
func NewGenerator(d Dex, src dice.Source, logger *zap.Logger, maxAttempts int, levelCapDisabled bool) *Generator {
	return &Generator{dex: d, src: src, logger: logger, maxAttempts: max(1, maxAttempts), levelCapDisabled: levelCapDisabled}
}

// Pick generates a wild creature for req.
//
// Each attempt draws a tier by weight, a species uniformly from that tier and a
// level around req.CreatureLevel; the attempt is rejected when the species is
// missing or its minimum appearance level exceeds the rolled level. After
// maxAttempts rejections the tiers with non-zero weight are scanned in order of
// weight for the first eligible species.
//
// Postcondition: returns a creature at full HP, or an error wrapping ErrEncounterExhausted.
func (g *Generator) Pick(req Request) (*creature.Creature, error) {
	weights := TierWeights(req.TotalReviews, req.DailyAverage, req.PlayerLevel, req.CreatureLevel)
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		tier := g.pickTier(weights)
		ids := g.dex.TierIDs(tier)
		if len(ids) == 0 {
			g.logger.Debug("tier has no species", zap.String("tier", string(tier)), zap.Int("attempt", attempt))
			continue
		}
		id := dice.Pick(g.src, ids)
		sp, err := g.dex.SpeciesByID(id)
		if err != nil {
			g.logger.Debug("rejecting wild pick", zap.Int("id", id), zap.Error(err))
			continue
		}
		level := g.RollLevel(req.CreatureLevel)
		if sp.MinLevel() > level {
			g.logger.Debug("rejecting wild pick below minimum level",
				zap.String("species", sp.Name), zap.Int("level", level), zap.Int("min_level", sp.MinLevel()))
			continue
		}
		return g.build(sp, level, tier)
	}

	g.logger.Info("random wild selection exhausted, scanning tiers", zap.Int("attempts", g.maxAttempts))
	level := g.RollLevel(req.CreatureLevel)
	for _, tier := range byWeight(weights) {
		ids := slices.Clone(g.dex.TierIDs(tier))
		slices.Sort(ids)
		for _, id := range ids {
			sp, err := g.dex.SpeciesByID(id)
			if err != nil || sp.MinLevel() > level {
				continue
			}
			return g.build(sp, level, tier)
		}
	}
	return nil, fmt.Errorf("%w: no eligible species at level %d after %d attempts", ErrEncounterExhausted, level, g.maxAttempts)
}

// RollLevel returns a wild level near creatureLevel: uniform between
// creatureLevel-a and creatureLevel+b with a, b drawn from [0, 3], at least 1.
// A creature at the level cap always meets wild creatures at the cap.
func (g *Generator) RollLevel(creatureLevel int) int {
	if !g.levelCapDisabled && creatureLevel >= stats.LevelCap {
		return stats.LevelCap
	}
	lo := creatureLevel - g.src.Intn(levelSpread+1)
	hi := creatureLevel + g.src.Intn(levelSpread+1)
	level := max(1, dice.Between(g.src, lo, hi))
	if !g.levelCapDisabled {
		level = min(level, stats.LevelCap)
	}
	return level
}

func (g *Generator) pickTier(weights map[dex.Tier]float64) dex.Tier {
	r := dice.Unit(g.src) * 100
	acc := 0.0
	for _, t := range dex.Tiers {
		acc += weights[t]
		if r < acc && weights[t] > 0 {
			return t
		}
	}
	return dex.Normal
}

func byWeight(weights map[dex.Tier]float64) []dex.Tier {
	var out []dex.Tier
	for _, t := range dex.Tiers {
		if weights[t] > 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return weights[out[i]] > weights[out[j]] })
	return out
}

func (g *Generator) build(sp *dex.Species, level int, tier dex.Tier) (*creature.Creature, error) {
	c, err := creature.FromSpecies(sp, level, g.rollIVs(), dex.StatBlock{}, g.levelCapDisabled)
	if err != nil {
		return nil, fmt.Errorf("building wild %s: %w", sp.Name, err)
	}
	c.Tier = tier
	c.Gender = g.rollGender(sp)
	c.Shiny = dice.Chance(g.src, 1, shinyOdds)
	c.Ability = NoAbility
	if abilities := sp.AbilityList(); len(abilities) > 0 {
		c.Ability = dice.Pick(g.src, abilities)
	}
	moves, err := g.dex.LearnableMoves(sp.Name, level, creature.MaxMoves, g.src)
	if err != nil {
		return nil, fmt.Errorf("building wild %s: %w", sp.Name, err)
	}
	c.Moves = moves
	g.logger.Debug("wild creature generated",
		zap.String("species", sp.Name),
		zap.String("tier", string(tier)),
		zap.Int("level", level),
		zap.Bool("shiny", c.Shiny),
	)
	return c, nil
}

func (g *Generator) rollIVs() dex.StatBlock {
	iv := func() int { return dice.Between(g.src, 1, creature.MaxIV) }
	return dex.StatBlock{HP: iv(), Atk: iv(), Def: iv(), SpA: iv(), SpD: iv(), Spe: iv()}
}

func (g *Generator) rollGender(sp *dex.Species) string {
	switch {
	case sp.Gender != "":
		return sp.Gender
	case sp.GenderRatio != nil:
		if dice.Unit(g.src) < sp.GenderRatio.M {
			return "M"
		}
		return "F"
	default:
		return dice.Pick(g.src, []string{"M", "F"})
	}
}
