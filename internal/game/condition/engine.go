package condition

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
)

var statNames = map[string]string{
	"atk":      "Attack",
	"def":      "Defense",
	"spa":      "Sp. Atk",
	"spd":      "Sp. Def",
	"spe":      "Speed",
	"accuracy": "accuracy",
	"evasion":  "evasiveness",
}

// Engine resolves status conditions and stat stages on creatures.
// It is not safe for concurrent use; the caller must serialise access.
type Engine struct {
	reg    *Registry
	src    dice.Source
	logger *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: reg, src and logger must be non-nil.
func NewEngine(reg *Registry, src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{reg: reg, src: src, logger: logger}
}

// Apply puts c into the condition identified by code, replacing whatever
// condition it had. Unsupported codes and fainted creatures are left untouched.
//
// Postcondition: on success c.Status is the condition's status and
// c.StatusTurns is freshly rolled.
func (e *Engine) Apply(c *creature.Creature, code string) []string {
	if c.Fainted() {
		return nil
	}
	def, ok := e.reg.Get(code)
	if !ok {
		e.logger.Debug("ignoring unsupported status", zap.String("status", code), zap.String("creature", c.Species))
		return nil
	}
	c.Status = def.Status
	c.StatusTurns = 0
	if def.duration != nil {
		c.StatusTurns = def.duration.Roll(e.src).Total()
	}
	return format(def.OnApply, c)
}

// CanAct resolves c's condition at the start of its turn.
//
// A timed condition whose counter has run out ends and the creature acts.
// Otherwise the counter is decremented and the creature loses the turn with
// the condition's skip chance, drawn independently each turn.
func (e *Engine) CanAct(c *creature.Creature) (bool, []string) {
	if c.Fainted() {
		return false, nil
	}
	if c.Status == creature.StatusNone || c.Status == "" {
		return true, nil
	}
	def, ok := e.reg.ForStatus(c.Status)
	if !ok {
		return true, nil
	}
	if def.duration != nil {
		if c.StatusTurns <= 0 {
			c.Status = creature.StatusNone
			c.StatusTurns = 0
			return true, format(def.OnEnd, c)
		}
		c.StatusTurns--
	}
	if dice.Chance(e.src, def.SkipChance, 100) {
		return false, format(def.OnSkip, c)
	}
	return true, nil
}

// ApplyBoosts adds each stage delta to c, clamping to the stage range.
// Stacking is additive on stage.
func (e *Engine) ApplyBoosts(c *creature.Creature, boosts map[string]int) []string {
	if c.Fainted() || len(boosts) == 0 {
		return nil
	}
	if c.Stages == nil {
		c.Stages = make(map[string]int, len(boosts))
	}
	keys := make([]string, 0, len(boosts))
	for k := range boosts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, stat := range keys {
		delta := boosts[stat]
		if delta == 0 {
			continue
		}
		before := c.Stages[stat]
		after := stats.ClampStage(before + delta)
		c.Stages[stat] = after
		msgs = append(msgs, boostMessage(c.DisplayName(), stat, after-before, delta))
	}
	return msgs
}

// ResolveStatusMove applies a Status-category move used by user against target.
// Boosts go to the user when the move targets itself and to the target when it
// targets a foe; a status payload goes to the same side.
func (e *Engine) ResolveStatusMove(user, target *creature.Creature, m *dex.Move) []string {
	recipient := target
	if m.TargetsSelf() {
		recipient = user
	} else if !m.TargetsFoe() {
		e.logger.Debug("status move has no supported target", zap.String("move", m.Name), zap.String("target", m.Target))
		return nil
	}
	msgs := e.ApplyBoosts(recipient, m.Boosts)
	if m.Status != "" {
		msgs = append(msgs, e.Apply(recipient, m.Status)...)
	}
	if m.Secondary != nil {
		msgs = append(msgs, e.ApplySecondary(target, m)...)
	}
	if len(msgs) == 0 {
		msgs = []string{"But nothing happened!"}
	}
	return msgs
}

// ApplySecondary resolves the side effects of a damaging move after its damage
// has been applied. A primary status payload always lands; the secondary effect
// lands with its declared chance.
func (e *Engine) ApplySecondary(target *creature.Creature, m *dex.Move) []string {
	var msgs []string
	if m.Category != dex.Status && m.Status != "" {
		msgs = append(msgs, e.Apply(target, m.Status)...)
	}
	if s := m.Secondary; s != nil && dice.Chance(e.src, s.Chance, 100) {
		if s.Status != "" {
			msgs = append(msgs, e.Apply(target, s.Status)...)
		}
		msgs = append(msgs, e.ApplyBoosts(target, s.Boosts)...)
	}
	return msgs
}

func boostMessage(name, stat string, applied, requested int) string {
	label, ok := statNames[stat]
	if !ok {
		label = stat
	}
	switch {
	case applied == 0 && requested > 0:
		return fmt.Sprintf("%s's %s won't go any higher!", name, label)
	case applied == 0:
		return fmt.Sprintf("%s's %s won't go any lower!", name, label)
	case applied >= 3:
		return fmt.Sprintf("%s's %s rose drastically!", name, label)
	case applied == 2:
		return fmt.Sprintf("%s's %s rose sharply!", name, label)
	case applied == 1:
		return fmt.Sprintf("%s's %s rose!", name, label)
	case applied == -1:
		return fmt.Sprintf("%s's %s fell!", name, label)
	case applied == -2:
		return fmt.Sprintf("%s's %s harshly fell!", name, label)
	default:
		return fmt.Sprintf("%s's %s severely fell!", name, label)
	}
}

func format(tmpl string, c *creature.Creature) []string {
	if tmpl == "" {
		return nil
	}
	return []string{fmt.Sprintf(tmpl, c.DisplayName())}
}
