package dex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
)

// Evolution trigger kinds, following the dataset's evoType field.
const (
	EvoLevel           = ""
	EvoLevelFriendship = "levelFriendship"
	EvoUseItem         = "useItem"
	EvoTrade           = "trade"
	EvoScript          = "script"
)

// StatBlock is a per-stat integer block used for base stats, IVs, EVs and EV yields.
type StatBlock struct {
	HP  int `yaml:"hp" json:"hp"`
	Atk int `yaml:"atk" json:"atk"`
	Def int `yaml:"def" json:"def"`
	SpA int `yaml:"spa" json:"spa"`
	SpD int `yaml:"spd" json:"spd"`
	Spe int `yaml:"spe" json:"spe"`
}

// Add returns the element-wise sum of s and o.
func (s StatBlock) Add(o StatBlock) StatBlock {
	return StatBlock{
		HP:  s.HP + o.HP,
		Atk: s.Atk + o.Atk,
		Def: s.Def + o.Def,
		SpA: s.SpA + o.SpA,
		SpD: s.SpD + o.SpD,
		Spe: s.Spe + o.Spe,
	}
}

// Values returns the block as a name → value map keyed by the dataset's stat names.
func (s StatBlock) Values() map[string]int {
	return map[string]int{"hp": s.HP, "atk": s.Atk, "def": s.Def, "spa": s.SpA, "spd": s.SpD, "spe": s.Spe}
}

// GenderRatio is the species' male/female split. A nil ratio with an empty
// Gender field means an even split.
type GenderRatio struct {
	M float64 `yaml:"M"`
	F float64 `yaml:"F"`
}

// Species is the static definition of a creature species.
type Species struct {
	ID             int                 `yaml:"num"`
	Name           string              `yaml:"name"`
	Types          []string            `yaml:"types"`
	BaseStats      StatBlock           `yaml:"baseStats"`
	Abilities      map[string]string   `yaml:"abilities"`
	Gender         string              `yaml:"gender"`
	GenderRatio    *GenderRatio        `yaml:"genderRatio"`
	Prevo          string              `yaml:"prevo"`
	Evos           []string            `yaml:"evos"`
	EvoLevel       int                 `yaml:"evoLevel"`
	EvoType        string              `yaml:"evoType"`
	EvoItem        string              `yaml:"evoItem"`
	EvoCondition   string              `yaml:"evoCondition"`
	GrowthRate     string              `yaml:"growthRate"`
	BaseExperience int                 `yaml:"baseExperience"`
	EVYield        StatBlock           `yaml:"evYield"`
	Learnset       map[string][]string `yaml:"learnset"`

	// levels maps a normalized move key to the levels it is learned at by level-up.
	levels map[string][]int
}

// Validate checks the fields the engines depend on.
func (s *Species) Validate() error {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if s.ID < 1 {
		errs = append(errs, fmt.Sprintf("num must be >= 1, got %d", s.ID))
	}
	if len(s.Types) < 1 || len(s.Types) > 2 {
		errs = append(errs, fmt.Sprintf("types must have 1 or 2 entries, got %d", len(s.Types)))
	}
	for name, v := range s.BaseStats.Values() {
		if v < 1 {
			errs = append(errs, fmt.Sprintf("baseStats.%s must be >= 1, got %d", name, v))
		}
	}
	switch s.EvoType {
	case EvoLevel, EvoLevelFriendship, EvoUseItem, EvoTrade, EvoScript:
	default:
		errs = append(errs, fmt.Sprintf("evoType %q is not supported", s.EvoType))
	}
	if s.GrowthRate != "" {
		if _, err := stats.ParseGrowthRate(s.GrowthRate); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if s.EvoType == EvoUseItem && s.EvoItem == "" {
		errs = append(errs, "evoItem is required when evoType is useItem")
	}
	if s.EvoType == EvoScript && s.EvoCondition == "" {
		errs = append(errs, "evoCondition is required when evoType is script")
	}
	if len(errs) > 0 {
		return fmt.Errorf("species %q: %s", s.Name, strings.Join(errs, "; "))
	}
	return nil
}

// Rate returns the species' growth rate, defaulting to medium-fast.
func (s *Species) Rate() stats.GrowthRate {
	g, err := stats.ParseGrowthRate(s.GrowthRate)
	if err != nil {
		return stats.MediumFast
	}
	return g
}

// AbilityList returns the species' abilities in slot order ("0", "1", "H", ...).
func (s *Species) AbilityList() []string {
	slots := []string{"0", "1", "H", "S"}
	out := make([]string, 0, len(s.Abilities))
	for _, slot := range slots {
		if a, ok := s.Abilities[slot]; ok && a != "" {
			out = append(out, a)
		}
	}
	return out
}

// MinLevel is the lowest level at which the species may appear in the wild.
// Species evolving by level appear from that level; species evolving any other
// way appear only at the level cap; base forms appear from level 1.
func (s *Species) MinLevel() int {
	switch {
	case s.EvoLevel > 0:
		return s.EvoLevel
	case s.EvoType != EvoLevel:
		return stats.LevelCap
	default:
		return 1
	}
}

// EvolvesByLevel reports whether the species is reached from its pre-evolution
// at a fixed level.
func (s *Species) EvolvesByLevel() bool {
	return s.Prevo != "" && s.EvoType == EvoLevel && s.EvoLevel > 0
}

// indexLearnset parses the learnset sources ("9L15", "8M", ...) keeping level-up
// entries only.
func (s *Species) indexLearnset() error {
	s.levels = make(map[string][]int, len(s.Learnset))
	for move, sources := range s.Learnset {
		key := Key(move)
		for _, src := range sources {
			i := strings.IndexByte(src, 'L')
			if i < 0 {
				continue
			}
			lvl, err := strconv.Atoi(src[i+1:])
			if err != nil {
				return fmt.Errorf("species %q: learnset %q source %q: %w", s.Name, move, src, err)
			}
			s.levels[key] = append(s.levels[key], lvl)
		}
	}
	return nil
}
