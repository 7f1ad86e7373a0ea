package encounter_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/encounter"
)

// fixedSrc returns the queued values in order (modulo n), then repeats the last.
type fixedSrc struct {
	vals []int
	i    int
}

func (f *fixedSrc) Intn(n int) int {
	v := f.vals[min(f.i, len(f.vals)-1)]
	f.i++
	return v % n
}

func sum(w map[dex.Tier]float64) float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

func species(id int, name string, mod func(*dex.Species)) *dex.Species {
	s := &dex.Species{
		ID: id, Name: name, Types: []string{"Normal"},
		BaseStats: dex.StatBlock{HP: 40, Atk: 40, Def: 40, SpA: 40, SpD: 40, Spe: 40},
		Abilities: map[string]string{"0": "Run Away"},
		Learnset:  map[string][]string{"tackle": {"9L1"}, "growl": {"9L3"}, "bite": {"9L30"}},
	}
	if mod != nil {
		mod(s)
	}
	return s
}

func testDex(t *testing.T, tiers dex.TierTable) *dex.Dex {
	t.Helper()
	d, err := dex.New(nil, map[string]*dex.Species{
		"rattata": species(19, "rattata", nil),
		"raticate": species(20, "raticate", func(s *dex.Species) {
			s.Prevo, s.EvoLevel = "rattata", 20
		}),
		"mewtwo": species(150, "mewtwo", nil),
		"tyrogue": species(236, "tyrogue", func(s *dex.Species) {
			s.Gender = "M"
		}),
	}, tiers)
	require.NoError(t, err)
	return d
}

func TestTierWeights_LowRatioCollapsesIntoNormal(t *testing.T) {
	w := encounter.TierWeights(10, 100, 1, 80)
	assert.InDelta(t, 100, w[dex.Normal], 1e-9)
	for _, tier := range []dex.Tier{dex.Baby, dex.Ultra, dex.Legendary, dex.Mythical} {
		assert.Zero(t, w[tier], tier)
	}
}

func TestTierWeights_ZeroDailyAverage(t *testing.T) {
	w := encounter.TierWeights(500, 0, 1, 80)
	assert.InDelta(t, 100, w[dex.Normal], 1e-9)
}

func TestTierWeights_HalfwayAtLevel40(t *testing.T) {
	w := encounter.TierWeights(50, 100, 1, 40)
	// Baby 2+2, Normal 92.3-2, Ultra 5, Legendary and Mythical locked.
	total := 4 + 90.3 + 5
	assert.InDelta(t, 4/total*100, w[dex.Baby], 1e-9)
	assert.InDelta(t, 90.3/total*100, w[dex.Normal], 1e-9)
	assert.InDelta(t, 5/total*100, w[dex.Ultra], 1e-9)
	assert.Zero(t, w[dex.Legendary])
	assert.Zero(t, w[dex.Mythical])
}

func TestTierWeights_NearDailyAverage(t *testing.T) {
	w := encounter.TierWeights(90, 100, 1, 80)
	total := 2 + 87.3 + 8 + 2.5 + 0.2
	assert.InDelta(t, 87.3/total*100, w[dex.Normal], 1e-9)
	assert.InDelta(t, 8/total*100, w[dex.Ultra], 1e-9)
	assert.InDelta(t, 2.5/total*100, w[dex.Legendary], 1e-9)
}

func TestTierWeights_PastDailyAverageKeepsBase(t *testing.T) {
	w := encounter.TierWeights(250, 100, 1, 80)
	assert.InDelta(t, 92.3, w[dex.Normal], 1e-9)
	assert.InDelta(t, 0.2, w[dex.Mythical], 1e-9)
}

func TestTierWeights_PlayerLevelShift(t *testing.T) {
	w := encounter.TierWeights(150, 100, 11, 80)
	// Normal 87.3, every other tier +5.
	total := 7 + 87.3 + 10 + 5.5 + 5.2
	assert.InDelta(t, 87.3/total*100, w[dex.Normal], 1e-9)
	assert.InDelta(t, 7/total*100, w[dex.Baby], 1e-9)
}

func TestTierWeights_SumTo100(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := encounter.TierWeights(
			rapid.IntRange(0, 10000).Draw(rt, "total"),
			rapid.IntRange(-5, 1000).Draw(rt, "daily"),
			rapid.IntRange(0, 100).Draw(rt, "player"),
			rapid.IntRange(1, 120).Draw(rt, "creature"),
		)
		assert.Len(rt, w, len(dex.Tiers))
		assert.InDelta(rt, 100, sum(w), 1e-6)
		for tier, v := range w {
			assert.GreaterOrEqual(rt, v, 0.0, tier)
			assert.False(rt, math.IsNaN(v))
		}
	})
}

func TestTierWeights_Pure(t *testing.T) {
	assert.Equal(t, encounter.TierWeights(70, 100, 12, 55), encounter.TierWeights(70, 100, 12, 55))
}

func TestRollLevel(t *testing.T) {
	g := encounter.NewGenerator(testDex(t, nil), dice.NewSeededSource(3), zap.NewNop(), 10, false)
	assert.Equal(t, 100, g.RollLevel(100))
	rapid.Check(t, func(rt *rapid.T) {
		lvl := rapid.IntRange(1, 99).Draw(rt, "level")
		got := g.RollLevel(lvl)
		assert.GreaterOrEqual(rt, got, max(1, lvl-3))
		assert.LessOrEqual(rt, got, min(100, lvl+3))
	})
}

func TestRollLevel_CapDisabled(t *testing.T) {
	g := encounter.NewGenerator(testDex(t, nil), dice.NewSeededSource(3), zap.NewNop(), 10, true)
	for range 50 {
		got := g.RollLevel(120)
		assert.GreaterOrEqual(t, got, 117)
		assert.LessOrEqual(t, got, 123)
	}
}

func TestPick_BuildsEligibleCreature(t *testing.T) {
	d := testDex(t, dex.TierTable{dex.Normal: {19, 20}})
	rapid.Check(t, func(rt *rapid.T) {
		g := encounter.NewGenerator(d, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), zap.NewNop(), 50, false)
		lvl := rapid.IntRange(1, 100).Draw(rt, "level")
		c, err := g.Pick(encounter.Request{TotalReviews: 0, DailyAverage: 100, PlayerLevel: 1, CreatureLevel: lvl})
		require.NoError(rt, err)
		assert.Equal(rt, dex.Normal, c.Tier)
		assert.Equal(rt, c.MaxHP, c.CurrentHP)
		assert.LessOrEqual(rt, len(c.Moves), 4)
		assert.NotEmpty(rt, c.Moves)
		assert.Equal(rt, "Run Away", c.Ability)
		if c.Species == "raticate" {
			assert.GreaterOrEqual(rt, c.Level, 20)
		}
		for _, v := range c.IV.Values() {
			assert.GreaterOrEqual(rt, v, 1)
			assert.LessOrEqual(rt, v, 32)
		}
		assert.Zero(rt, c.EV)
	})
}

func TestPick_FixedGender(t *testing.T) {
	d := testDex(t, dex.TierTable{dex.Normal: {236}})
	g := encounter.NewGenerator(d, dice.NewSeededSource(1), zap.NewNop(), 5, false)
	c, err := g.Pick(encounter.Request{CreatureLevel: 10})
	require.NoError(t, err)
	assert.Equal(t, "M", c.Gender)
}

func TestPick_FallsBackAfterRejectedAttempts(t *testing.T) {
	// Every random draw is 0: tier Normal, species id 1 (missing), level unchanged.
	d := testDex(t, dex.TierTable{dex.Normal: {1, 19}})
	g := encounter.NewGenerator(d, &fixedSrc{vals: []int{0}}, zap.NewNop(), 5, false)
	c, err := g.Pick(encounter.Request{CreatureLevel: 10})
	require.NoError(t, err)
	assert.Equal(t, "rattata", c.Species)
	assert.Equal(t, 10, c.Level)
}

func TestPick_ExhaustedWhenNothingEligible(t *testing.T) {
	d := testDex(t, dex.TierTable{dex.Normal: {20}})
	g := encounter.NewGenerator(d, dice.NewSeededSource(9), zap.NewNop(), 5, false)
	_, err := g.Pick(encounter.Request{CreatureLevel: 5})
	assert.True(t, errors.Is(err, encounter.ErrEncounterExhausted))
}

func TestPick_ExhaustedWhenTiersEmpty(t *testing.T) {
	g := encounter.NewGenerator(testDex(t, nil), dice.NewSeededSource(9), zap.NewNop(), 5, false)
	_, err := g.Pick(encounter.Request{CreatureLevel: 5})
	assert.True(t, errors.Is(err, encounter.ErrEncounterExhausted))
}
