package battle

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
)

// ResolutionKind is how a fainted wild creature was handled.
type ResolutionKind string

const (
	Caught   ResolutionKind = "caught"
	Defeated ResolutionKind = "defeated"
)

// Resolution reports a catch or defeat.
type Resolution struct {
	Kind ResolutionKind
	// Creature is the caught creature, restored to full HP. Nil for a defeat.
	Creature *creature.Creature
	// Report is the experience applied to the player's creature on a defeat.
	Report    progression.LevelUpReport
	TrainerXP int
	Messages  []string
	// Repeat is true when the encounter was already resolved; nothing was awarded again.
	Repeat bool
}

// Catch adds the fainted wild creature to the player's collection and ends
// the encounter. Catching twice, or catching after a defeat, awards nothing
// and returns the first resolution with Repeat set.
//
// Precondition: the wild creature has fainted.
func (e *Engine) Catch(s *State) (Resolution, error) {
	if r, ok := e.repeat(s); ok {
		return r, nil
	}
	if err := e.resolvable(s); err != nil {
		return Resolution{}, err
	}
	caught := s.Wild.Clone()
	caught.Restore()
	r := Resolution{
		Kind:      Caught,
		Creature:  caught,
		TrainerXP: s.Trainer.Gain(s.Wild.Tier, e.cfg.ChooseMoves),
		Messages:  []string{fmt.Sprintf("You caught %s!", s.Wild.DisplayName())},
	}
	e.finish(s, r)
	return r, nil
}

// Defeat awards the player's creature for the fainted wild creature and ends
// the encounter. Any decisions raised by levelling up become pending.
// Defeating twice, or defeating after a catch, awards nothing and returns the
// first resolution with Repeat set.
//
// Precondition: the wild creature has fainted.
func (e *Engine) Defeat(s *State) (Resolution, error) {
	if r, ok := e.repeat(s); ok {
		return r, nil
	}
	if err := e.resolvable(s); err != nil {
		return Resolution{}, err
	}
	report := e.progress.AwardDefeat(s.Player, s.Wild, e.cfg.ChooseMoves)
	r := Resolution{
		Kind:      Defeated,
		Report:    report,
		TrainerXP: s.Trainer.Gain(s.Wild.Tier, e.cfg.ChooseMoves),
		Messages:  append([]string{fmt.Sprintf("%s defeated the wild %s!", s.Player.DisplayName(), s.Wild.DisplayName())}, report.Messages...),
	}
	s.pending = append(s.pending, report.Pending...)
	e.finish(s, r)
	return r, nil
}

func (e *Engine) repeat(s *State) (Resolution, bool) {
	if s.resolved == nil {
		return Resolution{}, false
	}
	r := *s.resolved
	r.Repeat = true
	return r, true
}

func (e *Engine) resolvable(s *State) error {
	if s.Wild == nil || s.over {
		return ErrNoEncounter
	}
	if !s.Wild.Fainted() {
		return fmt.Errorf("%w: %s has not fainted", ErrInvalidChoice, s.Wild.DisplayName())
	}
	return nil
}

func (e *Engine) finish(s *State, r Resolution) {
	s.resolved = &r
	s.over = true
	e.logger.Info("encounter resolved",
		zap.String("kind", string(r.Kind)),
		zap.String("wild", s.Wild.Species),
		zap.Int("trainer_xp", r.TrainerXP),
		zap.Int("pending", len(s.pending)),
	)
}

// ResolveMoveReplacement answers the pending move-replacement decision with
// progression.KeepMoves or the index of the move to forget.
func (e *Engine) ResolveMoveReplacement(s *State, choice int) ([]string, error) {
	d, err := s.front(progression.MoveReplacement)
	if err != nil {
		return nil, err
	}
	msgs, err := progression.ResolveMoveReplacement(s.Player, d, choice)
	if err != nil {
		return nil, err
	}
	s.pending = s.pending[1:]
	return msgs, nil
}

// ResolveEvolution answers the pending evolution decision. Accepting evolves
// the player's creature; move conflicts from the new learnset become the next
// pending decisions.
func (e *Engine) ResolveEvolution(s *State, accept bool) ([]string, error) {
	d, err := s.front(progression.Evolution)
	if err != nil {
		return nil, err
	}
	if !accept {
		s.pending = s.pending[1:]
		return []string{fmt.Sprintf("%s did not evolve.", s.Player.DisplayName())}, nil
	}
	r, err := e.progress.Evolve(s.Player, d.Species)
	if err != nil {
		return nil, err
	}
	rest := s.pending[1:]
	s.pending = append(slices.Clone(r.Pending), rest...)
	return r.Messages, nil
}

// DismissDecisions resolves every pending decision with its default: keep the
// current moves, cancel the evolution.
func (e *Engine) DismissDecisions(s *State) []string {
	var msgs []string
	for len(s.pending) > 0 {
		var (
			out []string
			err error
		)
		switch s.pending[0].Kind {
		case progression.MoveReplacement:
			out, err = e.ResolveMoveReplacement(s, progression.KeepMoves)
		case progression.Evolution:
			out, err = e.ResolveEvolution(s, false)
		default:
			err = fmt.Errorf("%w: unknown decision kind %q", ErrInvalidChoice, s.pending[0].Kind)
		}
		if err != nil {
			e.logger.Warn("dropping unresolvable decision", zap.Stringer("decision", s.pending[0]), zap.Error(err))
			s.pending = s.pending[1:]
			continue
		}
		msgs = append(msgs, out...)
	}
	return msgs
}

// UseItem offers the evolution item unlocks for the player's creature as a
// pending decision. It reports whether the item had any effect.
func (e *Engine) UseItem(s *State, item string) bool {
	d, ok := e.progress.UseItem(s.Player, item)
	if ok {
		s.pending = append(s.pending, d)
	}
	return ok
}

// Trade offers a trade evolution for the player's creature as a pending
// decision. It reports whether trading had any effect.
func (e *Engine) Trade(s *State) bool {
	d, ok := e.progress.Trade(s.Player)
	if ok {
		s.pending = append(s.pending, d)
	}
	return ok
}

func (s *State) front(kind progression.DecisionKind) (progression.Decision, error) {
	if len(s.pending) == 0 {
		return progression.Decision{}, ErrNoPendingDecision
	}
	d := s.pending[0]
	if d.Kind != kind {
		return progression.Decision{}, fmt.Errorf("%w: pending decision is %s", ErrInvalidChoice, d.Kind)
	}
	return d, nil
}
