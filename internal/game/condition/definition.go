// Package condition implements the single-slot status model: sleep, paralysis,
// fainting and stat stages.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
)

// ConditionDef is the static definition of a status condition, keyed by the
// status code used in the move dataset ("slp", "par").
type ConditionDef struct {
	ID     string          `yaml:"id"`
	Name   string          `yaml:"name"`
	Status creature.Status `yaml:"status"` // "asleep" | "paralyzed"
	// Duration is a dice expression rolled on entry giving the number of turns
	// lost before the condition ends; empty means until cured.
	Duration string `yaml:"duration"`
	// SkipChance is the percent chance each turn that the creature fails to act
	// while the condition lasts.
	SkipChance int `yaml:"skip_chance"`
	// Format strings; %s is the creature's display name.
	OnApply string `yaml:"on_apply"`
	OnSkip  string `yaml:"on_skip"`
	OnEnd   string `yaml:"on_end"`

	duration *dice.Expression
}

// Validate checks the definition and compiles its duration expression.
func (d *ConditionDef) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if d.Status != creature.StatusAsleep && d.Status != creature.StatusParalyzed {
		errs = append(errs, fmt.Sprintf("status must be asleep or paralyzed, got %q", d.Status))
	}
	if d.SkipChance < 0 || d.SkipChance > 100 {
		errs = append(errs, fmt.Sprintf("skip_chance must be in [0, 100], got %d", d.SkipChance))
	}
	if d.Duration != "" {
		expr, err := dice.Parse(d.Duration)
		if err != nil {
			errs = append(errs, fmt.Sprintf("duration: %v", err))
		} else {
			d.duration = &expr
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("condition %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Registry holds all known ConditionDefs keyed by ID.
type Registry struct {
	defs map[string]*ConditionDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ConditionDef)}
}

// DefaultRegistry returns a Registry holding sleep (1-3 turns) and paralysis
// (25% chance to lose each turn).
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, def := range []*ConditionDef{
		{
			ID: "slp", Name: "Sleep", Status: creature.StatusAsleep, Duration: "1d3", SkipChance: 100,
			OnApply: "%s fell asleep!", OnSkip: "%s is fast asleep.", OnEnd: "%s woke up!",
		},
		{
			ID: "par", Name: "Paralysis", Status: creature.StatusParalyzed, SkipChance: 25,
			OnApply: "%s is paralyzed! It may be unable to move!", OnSkip: "%s is paralyzed! It can't move!",
		},
	} {
		if err := reg.Register(def); err != nil {
			panic(err)
		}
	}
	return reg
}

// Register validates def and adds it, overwriting any existing entry with the
// same ID. IDs are stored lower-cased, so lookups ignore case.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *ConditionDef) error {
	def.ID = strings.ToLower(strings.TrimSpace(def.ID))
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the ConditionDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*ConditionDef, bool) {
	d, ok := r.defs[strings.ToLower(id)]
	return d, ok
}

// ForStatus returns the definition that puts a creature into status.
func (r *Registry) ForStatus(status creature.Status) (*ConditionDef, bool) {
	for _, d := range r.All() {
		if d.Status == status {
			return d, true
		}
	}
	return nil, false
}

// All returns a snapshot slice of all registered ConditionDefs ordered by ID.
func (r *Registry) All() []*ConditionDef {
	out := make([]*ConditionDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory starts from DefaultRegistry and applies every *.yaml file in dir
// as an override or addition.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := DefaultRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def ConditionDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
