package combat

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/condition"
	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
)

// MoveFinder resolves move names against the move dataset.
type MoveFinder interface {
	FindMove(name string) (*dex.Move, error)
}

// Resolver computes the outcome of move uses.
// It is not safe for concurrent use; the caller must serialise access.
type Resolver struct {
	moves  MoveFinder
	status *condition.Engine
	src    dice.Source
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(moves MoveFinder, status *condition.Engine, src dice.Source, logger *zap.Logger) *Resolver {
	return &Resolver{moves: moves, status: status, src: src, logger: logger}
}

// UseMove resolves the move named moveName, substituting the fallback attack
// when the move cannot be resolved, then applies it.
//
// Postcondition: never fails; the returned outcome always names the move used.
func (r *Resolver) UseMove(attacker, defender *creature.Creature, moveName string, multiplier float64) AttackOutcome {
	m, err := r.moves.FindMove(moveName)
	if err != nil {
		r.logger.Info("substituting fallback attack",
			zap.String("move", moveName),
			zap.String("attacker", attacker.Species),
			zap.Error(err),
		)
		out := r.ResolveAttack(attacker, defender, dex.FallbackMove(moveName, r.src), multiplier)
		out.Fallback = true
		return out
	}
	return r.ResolveAttack(attacker, defender, m, multiplier)
}

// ResolveAttack applies m, used by attacker against defender, scaled by
// multiplier (>= 1 favors the attacker).
//
// Precondition: m passes Validate.
// Postcondition: defender.CurrentHP is reduced by out.Damage, clamped at 0;
// out.Damage >= 1 when m.BasePower > 0 and out.Hit.
func (r *Resolver) ResolveAttack(attacker, defender *creature.Creature, m *dex.Move, multiplier float64) AttackOutcome {
	out := AttackOutcome{Move: m.Name, Effectiveness: 1}
	if attacker.Fainted() {
		return out
	}
	out.Acted = true
	name := attacker.DisplayName()
	out.Messages = append(out.Messages, fmt.Sprintf("%s used %s!", name, creature.Title(m.Name)))

	if !r.hits(attacker, defender, m) {
		out.Messages = append(out.Messages, fmt.Sprintf("%s's attack missed!", name))
		return out
	}
	out.Hit = true

	if m.Category == dex.Status {
		out.Messages = append(out.Messages, r.status.ResolveStatusMove(attacker, defender, m)...)
		return out
	}

	if m.BasePower == 0 {
		out.Damage = fixedDamage(attacker, m)
		if out.Damage == 0 {
			out.Hit = false
			out.Messages = append(out.Messages, fmt.Sprintf("%s's attack missed!", name))
			return out
		}
	} else {
		out.Effectiveness = dex.Effectiveness(m.Type, defender.Types)
		num, den := CritChance(m.EffectiveCritRatio())
		out.Critical = dice.Chance(r.src, num, den)
		out.Damage = Damage(attacker, defender, m, multiplier, out.Effectiveness, out.Critical)
		if out.Critical {
			out.Messages = append(out.Messages, "A critical hit!")
		}
		if msg := EffectivenessMessage(out.Effectiveness); msg != "" {
			out.Messages = append(out.Messages, msg)
		}
	}

	out.Damage = defender.TakeDamage(out.Damage)
	out.Messages = append(out.Messages, fmt.Sprintf("%d damage is dealt to %s.", out.Damage, defender.DisplayName()))
	if defender.Fainted() {
		out.Fainted = true
		out.Messages = append(out.Messages, fmt.Sprintf("%s fainted!", defender.DisplayName()))
		return out
	}
	out.Messages = append(out.Messages, r.status.ApplySecondary(defender, m)...)
	return out
}

// Damage evaluates the damage formula:
//
//	floor(LevelFactor(level) * multiplier * basePower * atk/def * eff * stab * crit)
//
// with atk/def the stage-adjusted stats for the move's category.
//
// Postcondition: Returns >= 1.
func Damage(attacker, defender *creature.Creature, m *dex.Move, multiplier, eff float64, critical bool) int {
	atkStat, defStat := attackStats(m.Category)
	atk := attacker.EffectiveStat(atkStat)
	def := math.Max(defender.EffectiveStat(defStat), 1)

	dmg := LevelFactor(attacker.Level) * multiplier * float64(m.BasePower) * (atk / def) * eff
	if dex.HasType(attacker.Types, m.Type) {
		dmg *= STABMultiplier
	}
	if critical {
		dmg *= CritMultiplier
	}
	return max(1, int(math.Floor(dmg)))
}

func fixedDamage(attacker *creature.Creature, m *dex.Move) int {
	if m.Damage == nil {
		return attacker.Level
	}
	return max(0, m.Damage.For(attacker.Level))
}

// hits rolls m's accuracy check, scaled by the attacker's accuracy stage
// against the defender's evasion stage. Accuracy 0 never misses and draws
// nothing; neither does a chance that reaches 100.
func (r *Resolver) hits(attacker, defender *creature.Creature, m *dex.Move) bool {
	if m.Accuracy.AlwaysHits() {
		return true
	}
	net := attacker.Stage("accuracy") - defender.Stage("evasion")
	chance := float64(m.Accuracy) * stats.AccuracyMultiplier(net)
	if chance >= 100 {
		return true
	}
	return float64(r.src.Intn(100)) < chance
}
