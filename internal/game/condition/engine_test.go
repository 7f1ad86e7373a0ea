package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/creaturebattle/internal/game/condition"
	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
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

func newCreature(t *testing.T) *creature.Creature {
	t.Helper()
	sp := &dex.Species{
		ID: 1, Name: "bulbasaur", Types: []string{"Grass", "Poison"},
		BaseStats: dex.StatBlock{HP: 45, Atk: 49, Def: 49, SpA: 65, SpD: 65, Spe: 45},
	}
	c, err := creature.FromSpecies(sp, 10, dex.StatBlock{}, dex.StatBlock{}, false)
	require.NoError(t, err)
	return c
}

func newEngine(src dice.Source) *condition.Engine {
	return condition.NewEngine(condition.DefaultRegistry(), src, zap.NewNop())
}

func TestApply_Sleep_RollsCounter(t *testing.T) {
	c := newCreature(t)
	// 1d3 with Intn(3) == 1 rolls a 2.
	msgs := newEngine(&fixedSrc{vals: []int{1}}).Apply(c, "slp")
	assert.Equal(t, creature.StatusAsleep, c.Status)
	assert.Equal(t, 2, c.StatusTurns)
	assert.Equal(t, []string{"Bulbasaur fell asleep!"}, msgs)
}

func TestCanAct_SleepSkipsThenWakes(t *testing.T) {
	c := newCreature(t)
	e := newEngine(&fixedSrc{vals: []int{1}})
	e.Apply(c, "slp")

	ok, msgs := e.CanAct(c)
	assert.False(t, ok)
	assert.Equal(t, []string{"Bulbasaur is fast asleep."}, msgs)
	ok, _ = e.CanAct(c)
	assert.False(t, ok)

	ok, msgs = e.CanAct(c)
	assert.True(t, ok)
	assert.Equal(t, []string{"Bulbasaur woke up!"}, msgs)
	assert.Equal(t, creature.StatusNone, c.Status)
}

func TestCanAct_SleepLastsOneToThreeTurns(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newCreature(t)
		e := newEngine(dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		e.Apply(c, "slp")
		skipped := 0
		for {
			ok, _ := e.CanAct(c)
			if ok {
				break
			}
			skipped++
			require.LessOrEqual(rt, skipped, 3)
		}
		assert.GreaterOrEqual(rt, skipped, 1)
	})
}

func TestCanAct_Paralysis(t *testing.T) {
	c := newCreature(t)
	e := newEngine(&fixedSrc{vals: []int{10, 80}})
	e.Apply(c, "par")

	ok, msgs := e.CanAct(c)
	assert.False(t, ok, "draw 10 < 25 loses the turn")
	assert.Equal(t, []string{"Bulbasaur is paralyzed! It can't move!"}, msgs)

	ok, _ = e.CanAct(c)
	assert.True(t, ok, "draw 80 acts")
	assert.Equal(t, creature.StatusParalyzed, c.Status, "paralysis does not wear off")
}

func TestCanAct_FaintedNeverActs(t *testing.T) {
	c := newCreature(t)
	c.TakeDamage(c.MaxHP)
	ok, _ := newEngine(&fixedSrc{vals: []int{0}}).CanAct(c)
	assert.False(t, ok)
}

func TestApply_LastAppliedWins(t *testing.T) {
	c := newCreature(t)
	e := newEngine(&fixedSrc{vals: []int{2}})
	e.Apply(c, "slp")
	e.Apply(c, "par")
	assert.Equal(t, creature.StatusParalyzed, c.Status)
	assert.Equal(t, 0, c.StatusTurns)
}

func TestApply_FaintedIsTerminal(t *testing.T) {
	c := newCreature(t)
	c.TakeDamage(c.MaxHP)
	assert.Nil(t, newEngine(&fixedSrc{vals: []int{0}}).Apply(c, "par"))
	assert.Equal(t, creature.StatusFainted, c.Status)
}

func TestApply_UnsupportedStatusIgnored(t *testing.T) {
	c := newCreature(t)
	assert.Nil(t, newEngine(&fixedSrc{vals: []int{0}}).Apply(c, "brn"))
	assert.Equal(t, creature.StatusNone, c.Status)
}

func TestApplyBoosts_AdditiveAndClamped(t *testing.T) {
	c := newCreature(t)
	e := newEngine(&fixedSrc{vals: []int{0}})
	assert.Equal(t, []string{"Bulbasaur's Attack rose sharply!"}, e.ApplyBoosts(c, map[string]int{"atk": 2}))
	e.ApplyBoosts(c, map[string]int{"atk": 3})
	assert.Equal(t, 5, c.Stage("atk"))
	msgs := e.ApplyBoosts(c, map[string]int{"atk": 3})
	assert.Equal(t, 6, c.Stage("atk"))
	assert.Equal(t, []string{"Bulbasaur's Attack rose!"}, msgs)
	msgs = e.ApplyBoosts(c, map[string]int{"atk": 1})
	assert.Equal(t, []string{"Bulbasaur's Attack won't go any higher!"}, msgs)
}

func TestApplyBoosts_StagesStayInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newCreature(t)
		e := newEngine(&fixedSrc{vals: []int{0}})
		deltas := rapid.SliceOf(rapid.IntRange(-12, 12)).Draw(rt, "deltas")
		for _, d := range deltas {
			e.ApplyBoosts(c, map[string]int{"def": d})
			assert.GreaterOrEqual(rt, c.Stage("def"), -6)
			assert.LessOrEqual(rt, c.Stage("def"), 6)
		}
	})
}

func TestResolveStatusMove_Targets(t *testing.T) {
	user, foe := newCreature(t), newCreature(t)
	e := newEngine(&fixedSrc{vals: []int{0}})

	e.ResolveStatusMove(user, foe, &dex.Move{Name: "Swords Dance", Category: dex.Status, Target: "self", Boosts: map[string]int{"atk": 2}})
	assert.Equal(t, 2, user.Stage("atk"))
	assert.Equal(t, 0, foe.Stage("atk"))

	e.ResolveStatusMove(user, foe, &dex.Move{Name: "Growl", Category: dex.Status, Target: "allAdjacentFoes", Boosts: map[string]int{"atk": -1}})
	assert.Equal(t, -1, foe.Stage("atk"))
	assert.Equal(t, 2, user.Stage("atk"))

	e.ResolveStatusMove(user, foe, &dex.Move{Name: "Thunder Wave", Category: dex.Status, Target: "normal", Status: "par"})
	assert.Equal(t, creature.StatusParalyzed, foe.Status)
}

func TestResolveStatusMove_NothingHappens(t *testing.T) {
	user, foe := newCreature(t), newCreature(t)
	msgs := newEngine(&fixedSrc{vals: []int{0}}).ResolveStatusMove(user, foe, &dex.Move{Name: "Splash", Category: dex.Status, Target: "self"})
	assert.Equal(t, []string{"But nothing happened!"}, msgs)
}

func TestApplySecondary_ChanceRoll(t *testing.T) {
	m := &dex.Move{Name: "Thunder Shock", Category: dex.Special, Secondary: &dex.Secondary{Chance: 10, Status: "par"}}

	foe := newCreature(t)
	newEngine(&fixedSrc{vals: []int{50}}).ApplySecondary(foe, m)
	assert.Equal(t, creature.StatusNone, foe.Status)

	newEngine(&fixedSrc{vals: []int{5}}).ApplySecondary(foe, m)
	assert.Equal(t, creature.StatusParalyzed, foe.Status)
}

func TestApplySecondary_Boosts(t *testing.T) {
	m := &dex.Move{Name: "Acid", Category: dex.Special, Secondary: &dex.Secondary{Chance: 100, Boosts: map[string]int{"spd": -1}}}
	foe := newCreature(t)
	msgs := newEngine(&fixedSrc{vals: []int{0}}).ApplySecondary(foe, m)
	assert.Equal(t, -1, foe.Stage("spd"))
	assert.Equal(t, []string{"Bulbasaur's Sp. Def fell!"}, msgs)
}
