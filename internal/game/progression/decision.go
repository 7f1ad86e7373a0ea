// Package progression applies experience, level-ups, move learning and
// evolution. Choices the player must make are returned as pending Decisions
// and applied later with the Resolve functions; nothing blocks.
package progression

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
)

// ErrInvalidChoice is returned when a decision is resolved with a choice that
// does not fit it.
var ErrInvalidChoice = errors.New("invalid choice")

// DecisionKind distinguishes the suspend points of progression.
type DecisionKind string

const (
	MoveReplacement DecisionKind = "move-replacement"
	Evolution       DecisionKind = "evolution"
)

// Decision is a pending choice surfaced by progression.
type Decision struct {
	Kind DecisionKind
	// Move is the new move offered by a move-replacement decision.
	Move string
	// Species is the evolution target of an evolution decision.
	Species string
	// Trigger names what made the evolution available.
	Trigger string
}

// String renders the decision prompt.
func (d Decision) String() string {
	switch d.Kind {
	case MoveReplacement:
		return fmt.Sprintf("learn %s by forgetting a move, or keep the current moves", creature.Title(d.Move))
	case Evolution:
		return fmt.Sprintf("evolve into %s", creature.Title(d.Species))
	default:
		return string(d.Kind)
	}
}

// KeepMoves is the move-replacement choice that discards the new move.
const KeepMoves = -1

// ResolveMoveReplacement applies a move-replacement decision to c. choice is
// KeepMoves or the index of the slot to overwrite.
//
// Postcondition: on KeepMoves c.Moves is unchanged; otherwise exactly
// c.Moves[choice] is replaced by d.Move.
func ResolveMoveReplacement(c *creature.Creature, d Decision, choice int) ([]string, error) {
	if d.Kind != MoveReplacement {
		return nil, fmt.Errorf("%w: decision is %s, not %s", ErrInvalidChoice, d.Kind, MoveReplacement)
	}
	if choice == KeepMoves {
		return []string{fmt.Sprintf("%s did not learn %s.", c.DisplayName(), creature.Title(d.Move))}, nil
	}
	if choice < 0 || choice >= len(c.Moves) {
		return nil, fmt.Errorf("%w: move slot %d out of range [0, %d)", ErrInvalidChoice, choice, len(c.Moves))
	}
	old := c.Moves[choice]
	c.Moves[choice] = d.Move
	return []string{fmt.Sprintf("%s forgot %s and learned %s!", c.DisplayName(), creature.Title(old), creature.Title(d.Move))}, nil
}

// learnMoves adds each move not yet known to c while slots are free and
// returns a move-replacement decision for each that did not fit.
func learnMoves(c *creature.Creature, moves []string) (learned []string, pending []Decision) {
	for _, m := range moves {
		if c.HasMove(m) || slices.ContainsFunc(pending, func(d Decision) bool { return dex.Key(d.Move) == dex.Key(m) }) {
			continue
		}
		if len(c.Moves) < creature.MaxMoves {
			c.Moves = append(c.Moves, m)
			learned = append(learned, m)
			continue
		}
		pending = append(pending, Decision{Kind: MoveReplacement, Move: m})
	}
	return learned, pending
}
