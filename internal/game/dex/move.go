package dex

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
)

// Category determines which stats drive a move's damage, or whether it deals damage at all.
type Category string

const (
	Physical Category = "Physical"
	Special  Category = "Special"
	Status   Category = "Status"
)

// Valid reports whether c is one of the three move categories.
func (c Category) Valid() bool {
	return c == Physical || c == Special || c == Status
}

// Move targets that matter to the engines.
const (
	TargetSelf            = "self"
	TargetNormal          = "normal"
	TargetAllAdjacentFoes = "allAdjacentFoes"
)

// Accuracy is a move's hit chance in percent. 0 means the move never misses;
// the dataset spells that either as `true` or as 0.
type Accuracy int

// AlwaysHits reports whether the move ignores accuracy and evasion stages.
func (a Accuracy) AlwaysHits() bool { return a <= 0 }

// UnmarshalYAML accepts a boolean or an integer.
func (a *Accuracy) UnmarshalYAML(n *yaml.Node) error {
	var b bool
	if err := n.Decode(&b); err == nil {
		*a = 0
		return nil
	}
	var i int
	if err := n.Decode(&i); err != nil {
		return fmt.Errorf("accuracy must be true or an integer, got %q", n.Value)
	}
	*a = Accuracy(i)
	return nil
}

// FixedDamage describes the damage of a 0-power attacking move:
// either the attacker's level or a flat amount.
type FixedDamage struct {
	Level  bool
	Amount int
}

// UnmarshalYAML accepts "level" or an integer.
func (f *FixedDamage) UnmarshalYAML(n *yaml.Node) error {
	if strings.EqualFold(n.Value, "level") {
		*f = FixedDamage{Level: true}
		return nil
	}
	amt, err := strconv.Atoi(n.Value)
	if err != nil {
		return fmt.Errorf("damage must be \"level\" or an integer, got %q", n.Value)
	}
	*f = FixedDamage{Amount: amt}
	return nil
}

// For returns the damage dealt by an attacker at level.
func (f FixedDamage) For(level int) int {
	if f.Level {
		return level
	}
	return f.Amount
}

// Secondary is a chance-based side effect of a move.
type Secondary struct {
	Chance int            `yaml:"chance"`
	Status string         `yaml:"status"`
	Boosts map[string]int `yaml:"boosts"`
}

// Move is the static definition of a move. Moves are never mutated at runtime.
type Move struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	Category  Category       `yaml:"category"`
	BasePower int            `yaml:"basePower"`
	Accuracy  Accuracy       `yaml:"accuracy"`
	CritRatio int            `yaml:"critRatio"`
	Target    string         `yaml:"target"`
	Boosts    map[string]int `yaml:"boosts"`
	Status    string         `yaml:"status"`
	Secondary *Secondary     `yaml:"secondary"`
	Damage    *FixedDamage   `yaml:"damage"`
}

// Validate reports whether the engines can resolve m without falling back.
func (m *Move) Validate() error {
	var errs []string
	if m.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if !m.Category.Valid() {
		errs = append(errs, fmt.Sprintf("category %q is not Physical, Special or Status", m.Category))
	}
	if m.Type == "" {
		errs = append(errs, "type must not be empty")
	}
	if m.BasePower < 0 {
		errs = append(errs, "basePower must be >= 0")
	}
	if m.Secondary != nil && (m.Secondary.Chance < 0 || m.Secondary.Chance > 100) {
		errs = append(errs, "secondary.chance must be in [0, 100]")
	}
	if len(errs) > 0 {
		return fmt.Errorf("move %q: %s", m.Name, strings.Join(errs, "; "))
	}
	return nil
}

// EffectiveCritRatio returns CritRatio, defaulting to 1.
func (m *Move) EffectiveCritRatio() int {
	if m.CritRatio < 1 {
		return 1
	}
	return m.CritRatio
}

// TargetsSelf reports whether the move's boosts apply to its user.
func (m *Move) TargetsSelf() bool { return m.Target == TargetSelf }

// TargetsFoe reports whether the move's effects apply to the opponent.
func (m *Move) TargetsFoe() bool {
	return m.Target == "" || m.Target == TargetNormal || m.Target == TargetAllAdjacentFoes
}

// FallbackPower is the power range of the substitute attack used when a move
// cannot be resolved.
var FallbackPower = dice.MustParse("1d41+59")

// FallbackMove returns the substitute for an unresolvable move: a Normal-type
// physical attack of 60-100 power that keeps the chosen move's name.
//
// Postcondition: the returned move passes Validate.
func FallbackMove(name string, src dice.Source) *Move {
	if name == "" {
		name = "Struggle"
	}
	return &Move{
		Name:      name,
		Type:      "Normal",
		Category:  Physical,
		BasePower: FallbackPower.Roll(src).Total(),
		Accuracy:  100,
		CritRatio: 1,
		Target:    TargetNormal,
	}
}
