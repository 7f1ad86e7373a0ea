package progression

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
	"github.com/cory-johannsen/creaturebattle/internal/scripting"
)

// Friendship rules.
const (
	FriendshipThreshold = 220
	MaxFriendship       = 255
)

// FriendshipGain is the friendship awarded per defeated creature.
var FriendshipGain = dice.MustParse("1d5+4")

// Dex is the dataset view progression needs.
type Dex interface {
	Species(name string) (*dex.Species, error)
	Evolutions(name string) ([]*dex.Species, error)
	LevelUpMoves(species string, level int) ([]string, error)
	LearnableMoves(species string, level, max int, src dice.Source) ([]string, error)
}

// ConditionEvaluator evaluates scripted evolution conditions.
type ConditionEvaluator interface {
	Evaluate(script string, info scripting.CreatureInfo) (bool, error)
}

// LevelUpReport summarises one application of experience.
type LevelUpReport struct {
	Experience int
	StartLevel int
	EndLevel   int
	// Learned lists moves added to free slots.
	Learned []string
	// Pending lists decisions the caller must resolve, in order.
	Pending  []Decision
	Messages []string
}

// LevelsGained is EndLevel - StartLevel.
func (r LevelUpReport) LevelsGained() int { return r.EndLevel - r.StartLevel }

// Engine applies progression rules.
// It is not safe for concurrent use; the caller must serialise access.
type Engine struct {
	dex              Dex
	scripts          ConditionEvaluator
	src              dice.Source
	logger           *zap.Logger
	levelCapDisabled bool
}

// NewEngine creates an Engine. scripts may be nil, in which case scripted
// evolutions never trigger.
//
// Precondition: d, src and logger must be non-nil.
func NewEngine(d Dex, scripts ConditionEvaluator, src dice.Source, logger *zap.Logger, levelCapDisabled bool) *Engine {
	return &Engine{dex: d, scripts: scripts, src: src, logger: logger, levelCapDisabled: levelCapDisabled}
}

// ApplyExperience awards floor(ExperienceYield(baseExperience, opponentLevel))
// to c, halved when choicePenalty is set, and levels c up while it has enough
// experience. Each new level may teach moves and may make c evolution-eligible;
// conflicts and evolutions are returned as pending decisions.
//
// While the cap is enabled a creature at the cap gains nothing and keeps no
// leftover experience.
//
// Postcondition: c.Level <= LevelCap unless the cap is disabled; c.XP >= 0.
func (e *Engine) ApplyExperience(c *creature.Creature, baseExperience, opponentLevel int, choicePenalty bool) LevelUpReport {
	r := LevelUpReport{StartLevel: c.Level, EndLevel: c.Level}
	if !e.levelCapDisabled && c.Level >= stats.LevelCap {
		return r
	}
	exp := stats.ExperienceYield(baseExperience, opponentLevel)
	if choicePenalty {
		exp /= 2
	}
	r.Experience = exp
	c.XP += exp
	r.Messages = append(r.Messages, fmt.Sprintf("%s gained %d experience points.", c.DisplayName(), exp))

	for {
		if !e.levelCapDisabled && c.Level >= stats.LevelCap {
			break
		}
		need := stats.ExperienceRequired(c.GrowthRate, c.Level, e.levelCapDisabled)
		if c.XP < need {
			break
		}
		c.XP -= need
		c.Level++
		c.RecalculateHP()
		r.Messages = append(r.Messages, fmt.Sprintf("%s grew to level %d!", c.DisplayName(), c.Level))

		moves, err := e.dex.LevelUpMoves(c.Species, c.Level)
		if err != nil {
			e.logger.Warn("level-up moves unavailable", zap.String("species", c.Species), zap.Error(err))
		}
		learned, pending := learnMoves(c, moves)
		for _, m := range learned {
			r.Messages = append(r.Messages, fmt.Sprintf("%s learned %s!", c.DisplayName(), creature.Title(m)))
		}
		r.Learned = append(r.Learned, learned...)
		r.Pending = appendUnique(r.Pending, pending...)
	}
	r.EndLevel = c.Level
	if !e.levelCapDisabled && c.Level >= stats.LevelCap {
		c.XP = 0
	}

	if r.LevelsGained() > 0 {
		if d, ok := e.levelUpEvolution(c); ok {
			r.Pending = appendUnique(r.Pending, d)
		}
	}
	return r
}

// AwardDefeat applies the rewards of defeating foe: EV yield, friendship,
// the defeated counter and experience.
func (e *Engine) AwardDefeat(c, foe *creature.Creature, choicePenalty bool) LevelUpReport {
	c.EV = c.EV.Add(foe.EVYield)
	c.Friendship = min(MaxFriendship, c.Friendship+FriendshipGain.Roll(e.src).Total())
	c.Defeated++
	c.RecalculateHP()
	return e.ApplyExperience(c, foe.BaseExperience, foe.Level, choicePenalty)
}

// EvolutionReport summarises an applied evolution.
type EvolutionReport struct {
	From     string
	To       string
	Learned  []string
	Pending  []Decision
	Messages []string
}

// Evolve turns c into species, keeping level, EVs and IVs, and heals it to the
// new maximum HP. Experience toward the next level is reset, and the move set
// is re-derived from the new species' learnset at the current level.
//
// Postcondition: c.Species == species on success; move conflicts are pending.
func (e *Engine) Evolve(c *creature.Creature, species string) (EvolutionReport, error) {
	sp, err := e.dex.Species(species)
	if err != nil {
		return EvolutionReport{}, err
	}
	from := c.DisplayName()
	r := EvolutionReport{From: c.Species, To: sp.Name}

	c.SpeciesID = sp.ID
	c.Species = sp.Name
	c.Types = slices.Clone(sp.Types)
	c.Base = sp.BaseStats
	c.GrowthRate = sp.Rate()
	c.BaseExperience = sp.BaseExperience
	c.EVYield = sp.EVYield
	if abilities := sp.AbilityList(); len(abilities) > 0 && !slices.Contains(abilities, c.Ability) {
		c.Ability = dice.Pick(e.src, abilities)
	}
	c.XP = 0
	c.RecalculateHP()
	if !c.Fainted() {
		c.CurrentHP = c.MaxHP
	}
	r.Messages = append(r.Messages, fmt.Sprintf("Congratulations! %s evolved into %s!", from, c.DisplayName()))

	moves, err := e.dex.LearnableMoves(sp.Name, c.Level, creature.MaxMoves, e.src)
	if err != nil {
		e.logger.Warn("learnset unavailable after evolution", zap.String("species", sp.Name), zap.Error(err))
	}
	r.Learned, r.Pending = learnMoves(c, moves)
	for _, m := range r.Learned {
		r.Messages = append(r.Messages, fmt.Sprintf("%s learned %s!", c.DisplayName(), creature.Title(m)))
	}
	e.logger.Info("creature evolved", zap.String("from", r.From), zap.String("to", r.To), zap.Int("level", c.Level))
	return r, nil
}

// UseItem returns the evolution decision item makes available to c, if any.
func (e *Engine) UseItem(c *creature.Creature, item string) (Decision, bool) {
	return e.findEvolution(c, func(evo *dex.Species) (string, bool) {
		return "item", evo.EvoType == dex.EvoUseItem && strings.EqualFold(evo.EvoItem, item)
	})
}

// Trade returns the evolution decision trading makes available to c, if any.
func (e *Engine) Trade(c *creature.Creature) (Decision, bool) {
	return e.findEvolution(c, func(evo *dex.Species) (string, bool) {
		return "trade", evo.EvoType == dex.EvoTrade
	})
}

func (e *Engine) levelUpEvolution(c *creature.Creature) (Decision, bool) {
	return e.findEvolution(c, func(evo *dex.Species) (string, bool) {
		switch evo.EvoType {
		case dex.EvoLevel:
			return "level", evo.EvoLevel > 0 && c.Level >= evo.EvoLevel
		case dex.EvoLevelFriendship:
			return "friendship", c.Friendship >= FriendshipThreshold
		case dex.EvoScript:
			return "script", e.evaluateScript(c, evo)
		default:
			return "", false
		}
	})
}

// findEvolution returns the first evolution of c accepted by match.
// A creature holding an everstone never evolves.
func (e *Engine) findEvolution(c *creature.Creature, match func(*dex.Species) (string, bool)) (Decision, bool) {
	if c.Everstone {
		return Decision{}, false
	}
	evos, err := e.dex.Evolutions(c.Species)
	if err != nil {
		e.logger.Debug("no evolution data", zap.String("species", c.Species), zap.Error(err))
		return Decision{}, false
	}
	for _, evo := range evos {
		if trigger, ok := match(evo); ok {
			return Decision{Kind: Evolution, Species: evo.Name, Trigger: trigger}, true
		}
	}
	return Decision{}, false
}

func (e *Engine) evaluateScript(c *creature.Creature, evo *dex.Species) bool {
	if e.scripts == nil {
		return false
	}
	ok, err := e.scripts.Evaluate(evo.EvoCondition, scripting.CreatureInfo{
		Species:    c.Species,
		Level:      c.Level,
		Friendship: c.Friendship,
		XP:         c.XP,
		HP:         c.CurrentHP,
		MaxHP:      c.MaxHP,
		Gender:     c.Gender,
		Shiny:      c.Shiny,
		Defeated:   c.Defeated,
		Types:      slices.Clone(c.Types),
		Moves:      slices.Clone(c.Moves),
	})
	if err != nil {
		e.logger.Warn("evolution condition failed", zap.String("species", evo.Name), zap.Error(err))
		return false
	}
	return ok
}

func appendUnique(pending []Decision, ds ...Decision) []Decision {
	for _, d := range ds {
		if !slices.Contains(pending, d) {
			pending = append(pending, d)
		}
	}
	return pending
}
