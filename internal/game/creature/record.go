package creature

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/stats"
)

// Record is the persisted form of a creature. Field names follow the host
// application's save layout.
type Record struct {
	Name            string        `json:"name"`
	ID              int           `json:"id"`
	Nickname        string        `json:"nickname,omitempty"`
	Gender          string        `json:"gender"`
	Shiny           bool          `json:"shiny"`
	IndividualID    string        `json:"individual_id"`
	Level           int           `json:"level"`
	Type            []string      `json:"type"`
	Ability         string        `json:"ability"`
	Stats           dex.StatBlock `json:"stats"`
	EV              dex.StatBlock `json:"ev"`
	IV              dex.StatBlock `json:"iv"`
	EVYield         dex.StatBlock `json:"ev_yield"`
	Attacks         []string      `json:"attacks"`
	XP              int           `json:"xp"`
	GrowthRate      string        `json:"growth_rate"`
	BaseExperience  int           `json:"base_experience"`
	CurrentHP       int           `json:"current_hp"`
	Friendship      int           `json:"friendship"`
	PokemonDefeated int           `json:"pokemon_defeated"`
	Everstone       bool          `json:"everstone"`
	Tier            string        `json:"tier,omitempty"`
}

// ToRecord converts c to its persisted form. Encounter-scoped state
// (status, stages) is not persisted.
func (c *Creature) ToRecord() Record {
	return Record{
		Name:            c.Species,
		ID:              c.SpeciesID,
		Nickname:        c.Nickname,
		Gender:          c.Gender,
		Shiny:           c.Shiny,
		IndividualID:    c.IndividualID.String(),
		Level:           c.Level,
		Type:            slices.Clone(c.Types),
		Ability:         c.Ability,
		Stats:           c.Base,
		EV:              c.EV,
		IV:              c.IV,
		EVYield:         c.EVYield,
		Attacks:         slices.Clone(c.Moves),
		XP:              c.XP,
		GrowthRate:      string(c.GrowthRate),
		BaseExperience:  c.BaseExperience,
		CurrentHP:       c.CurrentHP,
		Friendship:      c.Friendship,
		PokemonDefeated: c.Defeated,
		Everstone:       c.Everstone,
		Tier:            string(c.Tier),
	}
}

// FromRecord rebuilds a creature from its persisted form.
//
// Postcondition: returns a valid creature, or an error wrapping ErrCorruptRecord.
func FromRecord(r Record, levelCapDisabled bool) (*Creature, error) {
	id, err := uuid.Parse(r.IndividualID)
	if err != nil {
		if r.IndividualID != "" {
			return nil, fmt.Errorf("%w: individual_id: %v", ErrCorruptRecord, err)
		}
		id = uuid.New()
	}
	rate, err := stats.ParseGrowthRate(r.GrowthRate)
	if err != nil {
		rate = stats.MediumFast
	}
	c := &Creature{
		SpeciesID:      r.ID,
		Species:        r.Name,
		Nickname:       r.Nickname,
		Gender:         r.Gender,
		Shiny:          r.Shiny,
		IndividualID:   id,
		Level:          r.Level,
		Base:           r.Stats,
		IV:             r.IV,
		EV:             r.EV,
		EVYield:        r.EVYield,
		Types:          slices.Clone(r.Type),
		Ability:        r.Ability,
		Moves:          slices.Clone(r.Attacks),
		XP:             r.XP,
		GrowthRate:     rate,
		BaseExperience: r.BaseExperience,
		Friendship:     r.Friendship,
		Defeated:       r.PokemonDefeated,
		Everstone:      r.Everstone,
		Tier:           dex.Tier(r.Tier),
		Status:         StatusNone,
	}
	if r.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrCorruptRecord)
	}
	if err := c.Validate(levelCapDisabled); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	c.MaxHP = stats.MaxHP(c.Base.HP, c.Level, c.EV.HP, c.IV.HP)
	c.CurrentHP = max(0, min(r.CurrentHP, c.MaxHP))
	if c.CurrentHP == 0 {
		c.Status = StatusFainted
	}
	return c, nil
}

// MarshalRecord encodes c as a JSON record.
func MarshalRecord(c *Creature) ([]byte, error) {
	return json.Marshal(c.ToRecord())
}

// UnmarshalRecord decodes a JSON record.
//
// Postcondition: returns a valid creature, or an error wrapping ErrCorruptRecord.
func UnmarshalRecord(data []byte, levelCapDisabled bool) (*Creature, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return FromRecord(r, levelCapDisabled)
}
