// Package creature defines the battling entity shared by every engine.
package creature

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
)

var (
	// ErrInvalidStatBlock is returned when a creature is built from out-of-range
	// IVs, EVs, base stats or level.
	ErrInvalidStatBlock = errors.New("invalid stat block")
	// ErrCorruptRecord is returned when a persisted record cannot be parsed.
	ErrCorruptRecord = errors.New("corrupt creature record")
)

// IV bounds.
const (
	MinIV = 0
	MaxIV = 32
)

// MaxMoves is the size of a full move set.
const MaxMoves = dex.DefaultMaxMoves

// Status is the single condition slot of a creature.
type Status string

const (
	StatusNone      Status = "none"
	StatusAsleep    Status = "asleep"
	StatusParalyzed Status = "paralyzed"
	StatusFainted   Status = "fainted"
)

// Creature is a battling entity instance.
//
// Invariant: 0 <= CurrentHP <= MaxHP; CurrentHP == 0 implies Status == StatusFainted.
type Creature struct {
	SpeciesID    int
	Species      string
	Nickname     string
	Gender       string
	Shiny        bool
	IndividualID uuid.UUID

	Level int
	Base  dex.StatBlock
	IV    dex.StatBlock
	EV    dex.StatBlock

	MaxHP     int
	CurrentHP int

	Types   []string
	Ability string
	Moves   []string

	XP             int
	GrowthRate     stats.GrowthRate
	BaseExperience int
	EVYield        dex.StatBlock

	Tier       dex.Tier
	Friendship int
	Defeated   int
	Everstone  bool

	Status      Status
	StatusTurns int
	Stages      map[string]int
}

// FromSpecies builds a creature of sp at level with the given individual and
// effort values. Moves, ability and gender are left for the caller to fill.
//
// Postcondition: returns a creature at full HP with status none, or an error
// wrapping ErrInvalidStatBlock.
func FromSpecies(sp *dex.Species, level int, iv, ev dex.StatBlock, levelCapDisabled bool) (*Creature, error) {
	c := &Creature{
		SpeciesID:      sp.ID,
		Species:        sp.Name,
		IndividualID:   uuid.New(),
		Level:          level,
		Base:           sp.BaseStats,
		IV:             iv,
		EV:             ev,
		Types:          slices.Clone(sp.Types),
		GrowthRate:     sp.Rate(),
		BaseExperience: sp.BaseExperience,
		EVYield:        sp.EVYield,
		Status:         StatusNone,
	}
	if err := c.Validate(levelCapDisabled); err != nil {
		return nil, err
	}
	c.MaxHP = stats.MaxHP(c.Base.HP, c.Level, c.EV.HP, c.IV.HP)
	c.CurrentHP = c.MaxHP
	return c, nil
}

// Validate checks the stat blocks and level.
//
// Postcondition: returns nil or an error wrapping ErrInvalidStatBlock listing every violation.
func (c *Creature) Validate(levelCapDisabled bool) error {
	var errs []string
	for name, v := range c.Base.Values() {
		if v < 1 {
			errs = append(errs, fmt.Sprintf("base %s must be >= 1, got %d", name, v))
		}
	}
	for name, v := range c.IV.Values() {
		if v < MinIV || v > MaxIV {
			errs = append(errs, fmt.Sprintf("iv %s must be in [%d, %d], got %d", name, MinIV, MaxIV, v))
		}
	}
	for name, v := range c.EV.Values() {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("ev %s must be >= 0, got %d", name, v))
		}
	}
	if c.Level < 1 {
		errs = append(errs, fmt.Sprintf("level must be >= 1, got %d", c.Level))
	}
	if !levelCapDisabled && c.Level > stats.LevelCap {
		errs = append(errs, fmt.Sprintf("level must be <= %d, got %d", stats.LevelCap, c.Level))
	}
	if len(c.Types) < 1 || len(c.Types) > 2 {
		errs = append(errs, fmt.Sprintf("types must have 1 or 2 entries, got %d", len(c.Types)))
	}
	if len(c.Moves) > MaxMoves {
		errs = append(errs, fmt.Sprintf("at most %d moves, got %d", MaxMoves, len(c.Moves)))
	}
	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("%w: %s", ErrInvalidStatBlock, strings.Join(errs, "; "))
	}
	return nil
}

// Stat returns the computed battle stat named name ("atk", "def", "spa", "spd",
// "spe" or "hp") without stage modifiers.
func (c *Creature) Stat(name string) int {
	base, iv, ev := c.Base.Values()[name], c.IV.Values()[name], c.EV.Values()[name]
	if name == "hp" {
		return stats.MaxHP(base, c.Level, ev, iv)
	}
	return stats.Stat(base, c.Level, ev, iv)
}

// Stage returns the current stage of stat.
func (c *Creature) Stage(stat string) int {
	return c.Stages[stat]
}

// EffectiveStat returns Stat scaled by the current stage multiplier.
func (c *Creature) EffectiveStat(name string) float64 {
	return float64(c.Stat(name)) * stats.StageMultiplier(c.Stage(name))
}

// RecalculateHP recomputes MaxHP from base stats, level, EV and IV. Damage
// already taken is preserved; a fainted creature stays at 0.
//
// Postcondition: 0 <= CurrentHP <= MaxHP.
func (c *Creature) RecalculateHP() {
	missing := c.MaxHP - c.CurrentHP
	c.MaxHP = stats.MaxHP(c.Base.HP, c.Level, c.EV.HP, c.IV.HP)
	if c.Status == StatusFainted {
		c.CurrentHP = 0
		return
	}
	c.CurrentHP = max(1, min(c.MaxHP, c.MaxHP-missing))
}

// TakeDamage subtracts n hit points, clamping at 0, and marks the creature
// fainted when HP reaches 0. It returns the damage actually applied.
func (c *Creature) TakeDamage(n int) int {
	if n <= 0 {
		return 0
	}
	applied := min(n, c.CurrentHP)
	c.CurrentHP -= applied
	if c.CurrentHP == 0 {
		c.Status = StatusFainted
		c.StatusTurns = 0
	}
	return applied
}

// Fainted reports whether the creature can no longer act in this encounter.
func (c *Creature) Fainted() bool {
	return c.Status == StatusFainted || c.CurrentHP <= 0
}

// Restore heals the creature to full HP and clears status and stages.
func (c *Creature) Restore() {
	c.CurrentHP = c.MaxHP
	c.ResetBattleState()
}

// ResetBattleState clears every encounter-scoped modifier.
func (c *Creature) ResetBattleState() {
	c.Status = StatusNone
	c.StatusTurns = 0
	c.Stages = nil
}

// HasMove reports whether name is in the move set, ignoring case.
func (c *Creature) HasMove(name string) bool {
	key := dex.Key(name)
	return slices.ContainsFunc(c.Moves, func(m string) bool { return dex.Key(m) == key })
}

// Clone returns a deep copy.
func (c *Creature) Clone() *Creature {
	cp := *c
	cp.Types = slices.Clone(c.Types)
	cp.Moves = slices.Clone(c.Moves)
	cp.Stages = maps.Clone(c.Stages)
	return &cp
}

var titler = cases.Title(language.English)

// DisplayName returns the nickname, or the capitalised species name.
func (c *Creature) DisplayName() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return titler.String(c.Species)
}

// Title capitalises a move or species name for the battle log.
func Title(name string) string {
	return titler.String(name)
}

// Snapshot is a read-only view of a creature for rendering.
type Snapshot struct {
	Name        string
	Species     string
	Level       int
	CurrentHP   int
	MaxHP       int
	Status      Status
	XP          int
	NextLevelXP int
	Moves       []string
}

// Snapshot captures the creature's current rendering state.
func (c *Creature) Snapshot(levelCapDisabled bool) Snapshot {
	return Snapshot{
		Name:        c.DisplayName(),
		Species:     c.Species,
		Level:       c.Level,
		CurrentHP:   c.CurrentHP,
		MaxHP:       c.MaxHP,
		Status:      c.Status,
		XP:          c.XP,
		NextLevelXP: stats.ExperienceRequired(c.GrowthRate, c.Level, levelCapDisabled),
		Moves:       slices.Clone(c.Moves),
	}
}
