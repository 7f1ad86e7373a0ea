// Package battle orchestrates review-triggered exchanges between the player's
// creature and a wild creature, and the catch, defeat and decision flows that
// follow them.
package battle

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
)

var (
	// ErrPendingDecisionRequired is returned while a decision or an unresolved
	// faint blocks the battle from advancing.
	ErrPendingDecisionRequired = errors.New("pending decision required")
	// ErrNoEncounter is returned when no encounter is in progress.
	ErrNoEncounter = errors.New("no encounter in progress")
	// ErrNoPendingDecision is returned when a decision is resolved but none is pending.
	ErrNoPendingDecision = errors.New("no pending decision")
	// ErrInvalidChoice is returned when a choice does not fit the pending decision.
	ErrInvalidChoice = progression.ErrInvalidChoice
	// ErrUnknownOutcome is returned for an unrecognised review outcome.
	ErrUnknownOutcome = errors.New("unknown review outcome")
)

// Outcome is the result of one review in the host application.
type Outcome string

const (
	Again Outcome = "again"
	Hard  Outcome = "hard"
	Good  Outcome = "good"
	Easy  Outcome = "easy"
)

// ParseOutcome accepts an outcome name or its ease number (1-4).
func ParseOutcome(s string) (Outcome, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		outcomes := []Outcome{Again, Hard, Good, Easy}
		if n >= 1 && n <= len(outcomes) {
			return outcomes[n-1], nil
		}
		return "", fmt.Errorf("%w: ease %d", ErrUnknownOutcome, n)
	}
	switch o := Outcome(s); o {
	case Again, Hard, Good, Easy:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
}

// Side identifies a battle participant.
type Side string

const (
	SideNone   Side = ""
	SidePlayer Side = "player"
	SideWild   Side = "wild"
)

// State is the explicit battle state for one player. The player creature and
// trainer are borrowed from the host and persist across encounters; the wild
// creature and counters belong to the current encounter.
//
// A State must not be used from more than one goroutine at a time.
type State struct {
	Player  *creature.Creature
	Wild    *creature.Creature
	Trainer progression.Trainer
	// TotalReviews counts every review seen today; it feeds encounter generation.
	TotalReviews int
	// Round counts the exchanges of the current encounter.
	Round int

	reviews  int
	pending  []progression.Decision
	resolved *Resolution
	over     bool
}

// NewState wraps the player's creature.
//
// Precondition: player must be non-nil.
func NewState(player *creature.Creature, trainer progression.Trainer) *State {
	return &State{Player: player, Trainer: trainer}
}

// Active reports whether an encounter is in progress.
func (s *State) Active() bool {
	return s.Wild != nil && !s.over
}

// Pending returns the decisions awaiting a choice, in resolution order.
func (s *State) Pending() []progression.Decision {
	return slices.Clone(s.pending)
}

// Snapshot is a read-only rendering view of a State.
type Snapshot struct {
	Player  creature.Snapshot
	Wild    *creature.Snapshot
	Round   int
	Active  bool
	Pending []progression.Decision
}

// Snapshot captures both creatures for rendering.
func (s *State) Snapshot(levelCapDisabled bool) Snapshot {
	snap := Snapshot{
		Player:  s.Player.Snapshot(levelCapDisabled),
		Round:   s.Round,
		Active:  s.Active(),
		Pending: s.Pending(),
	}
	if s.Wild != nil {
		w := s.Wild.Snapshot(levelCapDisabled)
		snap.Wild = &w
	}
	return snap
}

type checkpoint struct {
	player       *creature.Creature
	wild         *creature.Creature
	trainer      progression.Trainer
	totalReviews int
	round        int
	reviews      int
	pending      []progression.Decision
	resolved     *Resolution
	over         bool
}

func (s *State) checkpoint() checkpoint {
	cp := checkpoint{
		player:       s.Player.Clone(),
		trainer:      s.Trainer,
		totalReviews: s.TotalReviews,
		round:        s.Round,
		reviews:      s.reviews,
		pending:      slices.Clone(s.pending),
		resolved:     s.resolved,
		over:         s.over,
	}
	if s.Wild != nil {
		cp.wild = s.Wild.Clone()
	}
	return cp
}

// rollback restores the checkpoint in place so that borrowed pointers stay valid.
func (s *State) rollback(cp checkpoint) {
	*s.Player = *cp.player
	switch {
	case cp.wild == nil:
		s.Wild = nil
	case s.Wild == nil:
		s.Wild = cp.wild
	default:
		*s.Wild = *cp.wild
	}
	s.Trainer = cp.trainer
	s.TotalReviews = cp.totalReviews
	s.Round = cp.round
	s.reviews = cp.reviews
	s.pending = cp.pending
	s.resolved = cp.resolved
	s.over = cp.over
}
