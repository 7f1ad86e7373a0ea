// Package dex holds the immutable move, species and tier datasets and resolves
// lookups against them.
package dex

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
)

var (
	// ErrUnknownMove is returned when a move name is absent from the dataset
	// or its record cannot be resolved.
	ErrUnknownMove = errors.New("unknown move")
	// ErrMissingSpeciesData is returned when a species lookup fails.
	ErrMissingSpeciesData = errors.New("missing species data")
)

// DefaultMaxMoves is the size of a full move set.
const DefaultMaxMoves = 4

// Key normalizes a move or species name the way the datasets key them:
// lowercase letters and digits only.
func Key(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Dex is the read-only view over the static datasets.
// It is safe for concurrent use once constructed.
type Dex struct {
	moves   map[string]*Move
	species map[string]*Species
	byID    map[int]*Species
	tiers   TierTable
}

// New indexes the given datasets.
//
// Precondition: every species must pass Validate.
// Postcondition: returns a Dex or the first indexing error.
func New(moves map[string]*Move, species map[string]*Species, tiers TierTable) (*Dex, error) {
	d := &Dex{
		moves:   make(map[string]*Move, len(moves)),
		species: make(map[string]*Species, len(species)),
		byID:    make(map[int]*Species, len(species)),
		tiers:   tiers,
	}
	for k, m := range moves {
		if m.Name == "" {
			m.Name = k
		}
		d.moves[Key(k)] = m
	}
	for k, s := range species {
		if s.Name == "" {
			s.Name = k
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if err := s.indexLearnset(); err != nil {
			return nil, err
		}
		d.species[Key(s.Name)] = s
		d.byID[s.ID] = s
	}
	if tiers == nil {
		d.tiers = TierTable{}
	}
	if err := d.tiers.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Load reads the move, species and tier files and indexes them.
// Files may be YAML or JSON.
func Load(movesPath, speciesPath, tiersPath string) (*Dex, error) {
	var moves map[string]*Move
	if err := decodeFile(movesPath, &moves); err != nil {
		return nil, err
	}
	var species map[string]*Species
	if err := decodeFile(speciesPath, &species); err != nil {
		return nil, err
	}
	var tiers TierTable
	if err := decodeFile(tiersPath, &tiers); err != nil {
		return nil, err
	}
	return New(moves, species, tiers)
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	return nil
}

// FindMove resolves a move by name, ignoring case, spaces and punctuation.
//
// Postcondition: returns a move that passes Validate, or an error wrapping ErrUnknownMove.
func (d *Dex) FindMove(name string) (*Move, error) {
	m, ok := d.moves[Key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, name)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMove, err)
	}
	return m, nil
}

// Species resolves a species by name, ignoring case.
func (d *Dex) Species(name string) (*Species, error) {
	s, ok := d.species[Key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: species %q", ErrMissingSpeciesData, name)
	}
	return s, nil
}

// SpeciesByID resolves a species by its dataset number.
func (d *Dex) SpeciesByID(id int) (*Species, error) {
	s, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrMissingSpeciesData, id)
	}
	return s, nil
}

// TierIDs returns the species ids eligible for tier.
func (d *Dex) TierIDs(t Tier) []int {
	return d.tiers[t]
}

// Evolutions returns the species that name evolves into.
func (d *Dex) Evolutions(name string) ([]*Species, error) {
	s, err := d.Species(name)
	if err != nil {
		return nil, err
	}
	out := make([]*Species, 0, len(s.Evos))
	for _, evo := range s.Evos {
		e, err := d.Species(evo)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

type learnable struct {
	move  string
	level int
}

// LearnableMoves returns up to max moves the species knows at level. A move is
// eligible when it is learned by level-up at or below level and is not learned
// again above level. Eligible moves are ordered by their highest learn level,
// descending; ties are broken by src.
//
// Postcondition: len(result) <= max; no duplicates.
func (d *Dex) LearnableMoves(species string, level, max int, src dice.Source) ([]string, error) {
	s, err := d.Species(species)
	if err != nil {
		return nil, err
	}
	var cands []learnable
	for _, name := range sortedKeys(s.Learnset) {
		highest, eligible := 0, true
		for _, lvl := range s.levels[Key(name)] {
			if lvl > level {
				eligible = false
				break
			}
			if lvl > highest {
				highest = lvl
			}
		}
		if eligible && highest > 0 {
			cands = append(cands, learnable{move: name, level: highest})
		}
	}
	dice.Shuffle(src, cands)
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].level > cands[j].level })
	if len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.move
	}
	return out, nil
}

// LevelUpMoves returns the moves the species learns on reaching exactly level.
// A move the species learns again at a higher level is left for that level.
func (d *Dex) LevelUpMoves(species string, level int) ([]string, error) {
	s, err := d.Species(species)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range sortedKeys(s.Learnset) {
		at, later := false, false
		for _, lvl := range s.levels[Key(name)] {
			switch {
			case lvl == level:
				at = true
			case lvl > level:
				later = true
			}
		}
		if at && !later {
			out = append(out, name)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
