package battle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/creaturebattle/internal/config"
	"github.com/cory-johannsen/creaturebattle/internal/game/battle"
	"github.com/cory-johannsen/creaturebattle/internal/game/condition"
	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
)

// highSrc always returns the largest value: no crits, no paralysis skips,
// maximal IVs and level spreads.
type highSrc struct{}

func (highSrc) Intn(n int) int { return n - 1 }

func testDex(t require.TestingT) *dex.Dex {
	base := dex.StatBlock{HP: 50, Atk: 50, Def: 50, SpA: 50, SpD: 50, Spe: 50}
	d, err := dex.New(
		map[string]*dex.Move{
			"tackle":      {Name: "tackle", Type: "Normal", Category: dex.Physical, BasePower: 40, Accuracy: 100, Target: dex.TargetNormal},
			"megapunch":   {Name: "megapunch", Type: "Fighting", Category: dex.Physical, BasePower: 250, Accuracy: 100, Target: dex.TargetNormal},
			"growl":       {Name: "growl", Type: "Normal", Category: dex.Status, Accuracy: 100, Target: dex.TargetNormal, Boosts: map[string]int{"atk": -1}},
			"scratch":     {Name: "scratch", Type: "Normal", Category: dex.Physical, BasePower: 40, Accuracy: 100, Target: dex.TargetNormal},
			"ember":       {Name: "ember", Type: "Fire", Category: dex.Special, BasePower: 40, Accuracy: 100, Target: dex.TargetNormal},
			"smokescreen": {Name: "smokescreen", Type: "Normal", Category: dex.Status, Accuracy: 100, Target: dex.TargetNormal, Boosts: map[string]int{"accuracy": -1}},
		},
		map[string]*dex.Species{
			"rattata": {ID: 19, Name: "rattata", Types: []string{"Normal"}, BaseStats: base, BaseExperience: 51,
				EVYield: dex.StatBlock{Spe: 1}, Learnset: map[string][]string{"tackle": {"9L1"}}},
			"machop": {ID: 66, Name: "machop", Types: []string{"Fighting"}, BaseStats: base, BaseExperience: 61,
				Learnset: map[string][]string{"megapunch": {"9L1"}}},
			"charmander": {ID: 4, Name: "charmander", Types: []string{"Fire"}, BaseStats: base, Evos: []string{"charmeleon"},
				Learnset: map[string][]string{"scratch": {"9L1"}, "growl": {"9L1"}, "ember": {"9L4"}, "smokescreen": {"9L8"}, "dragonbreath": {"9L16"}}},
			"charmeleon": {ID: 5, Name: "charmeleon", Types: []string{"Fire"}, BaseStats: base, Prevo: "charmander", EvoLevel: 16,
				Learnset: map[string][]string{"scratch": {"9L1"}}},
		},
		dex.TierTable{dex.Normal: {19}},
	)
	require.NoError(t, err)
	return d
}

func battleConfig() config.BattleConfig {
	return config.BattleConfig{
		ReviewsPerRound:      1,
		AutomaticBattle:      config.AutoNone,
		DailyAverage:         100,
		MaxEncounterAttempts: 10,
		Multipliers:          config.MultiplierConfig{Again: 0.5, Hard: 0.8, Good: 1, Easy: 1.5},
	}
}

func newEngine(t require.TestingT, cfg config.BattleConfig, src dice.Source) *battle.Engine {
	return battle.NewEngine(cfg, testDex(t), condition.DefaultRegistry(), nil, src, zap.NewNop())
}

func mon(t require.TestingT, d *dex.Dex, name string, level int, moves ...string) *creature.Creature {
	sp, err := d.Species(name)
	require.NoError(t, err)
	c, err := creature.FromSpecies(sp, level, dex.StatBlock{HP: 20, Atk: 20, Def: 20, SpA: 20, SpD: 20, Spe: 20}, dex.StatBlock{}, false)
	require.NoError(t, err)
	c.Moves = moves
	c.Tier = dex.Normal
	return c
}

// fight returns a State with an encounter already under way.
func fight(t require.TestingT, player, wild *creature.Creature) *battle.State {
	s := battle.NewState(player, progression.Trainer{})
	s.Wild = wild
	return s
}

func TestParseOutcome(t *testing.T) {
	for in, want := range map[string]battle.Outcome{"again": battle.Again, " Hard ": battle.Hard, "3": battle.Good, "4": battle.Easy, "1": battle.Again} {
		got, err := battle.ParseOutcome(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"0", "5", "meh", ""} {
		_, err := battle.ParseOutcome(in)
		assert.True(t, errors.Is(err, battle.ErrUnknownOutcome), in)
	}
}

func TestNewEncounter_GeneratesWildAndRestoresPlayer(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "rattata", 10, "tackle")
	player.TakeDamage(player.MaxHP)
	player.Status = creature.StatusFainted
	s := battle.NewState(player, progression.Trainer{})

	msgs, err := e.NewEncounter(s)
	require.NoError(t, err)
	require.NotNil(t, s.Wild)
	assert.True(t, s.Active())
	assert.Equal(t, "rattata", s.Wild.Species)
	assert.Equal(t, 13, s.Wild.Level)
	assert.Equal(t, []string{"tackle"}, s.Wild.Moves)
	assert.Equal(t, []string{"A wild Rattata appeared! (level 13)"}, msgs)
	assert.Equal(t, player.MaxHP, player.CurrentHP)
	assert.Equal(t, creature.StatusNone, player.Status)

	snap := s.Snapshot(false)
	require.NotNil(t, snap.Wild)
	assert.Equal(t, s.Wild.MaxHP, snap.Wild.CurrentHP)
	assert.Equal(t, 10, snap.Player.Level)
}

func TestProcessRound_NoEncounter(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	s := battle.NewState(mon(t, d, "rattata", 10, "tackle"), progression.Trainer{})
	_, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	assert.True(t, errors.Is(err, battle.ErrNoEncounter))
}

func TestProcessRound_ReviewsPerRound(t *testing.T) {
	d := testDex(t)
	cfg := battleConfig()
	cfg.ReviewsPerRound = 2
	e := newEngine(t, cfg, highSrc{})
	wild := mon(t, d, "rattata", 10, "tackle")
	s := fight(t, mon(t, d, "rattata", 10, "tackle"), wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, s.TotalReviews)
	assert.Equal(t, 0, s.Round)
	assert.Equal(t, wild.MaxHP, wild.CurrentHP)

	res, err = e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, s.TotalReviews)
	assert.Equal(t, 1, s.Round)
	assert.Greater(t, res.AttackerDamage, 0)
}

func TestProcessRound_PassedReviewOnlyPlayerAttacks(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "rattata", 10, "tackle")
	wild := mon(t, d, "rattata", 10, "tackle")
	s := fight(t, player, wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	assert.Greater(t, res.AttackerDamage, 0)
	assert.Zero(t, res.DefenderDamage)
	assert.Equal(t, wild.MaxHP-res.AttackerDamage, wild.CurrentHP)
	assert.Equal(t, player.MaxHP, player.CurrentHP)
	assert.Equal(t, battle.SideNone, res.FaintedSide)
	assert.Contains(t, res.LogLines, "Rattata used Tackle!")
}

func TestProcessRound_FailedReviewWildAnswersDoubled(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "rattata", 10, "tackle")
	wild := mon(t, d, "rattata", 10, "tackle")
	s := fight(t, player, wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Again})
	require.NoError(t, err)
	require.Greater(t, res.DefenderDamage, 0)
	assert.Equal(t, player.MaxHP-res.DefenderDamage, player.CurrentHP)
	// Identical creatures: the wild side hits with 2 x 0.5 against the player's 0.5.
	assert.Greater(t, res.DefenderDamage, res.AttackerDamage)
}

func TestProcessRound_FailedReviewWildStrikesFirst(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "rattata", 10, "tackle")
	player.TakeDamage(player.MaxHP - 1)
	wild := mon(t, d, "rattata", 10, "tackle")
	wild.TakeDamage(wild.MaxHP - 1)
	s := fight(t, player, wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Again})
	require.NoError(t, err)
	assert.Equal(t, battle.SidePlayer, res.FaintedSide)
	assert.True(t, player.Fainted())
	assert.False(t, wild.Fainted())
	assert.Equal(t, 1, wild.CurrentHP)
	assert.Zero(t, res.AttackerDamage)
	used := 0
	for _, line := range res.LogLines {
		if strings.HasSuffix(line, "used Tackle!") {
			used++
		}
	}
	assert.Equal(t, 1, used, "only the wild side acts")
	assert.Equal(t, "The wild Rattata fled!", res.LogLines[len(res.LogLines)-1])
	assert.False(t, s.Active())
}

func TestProcessRound_FailedReviewLogsWildTurnFirst(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	s := fight(t, mon(t, d, "charmander", 10, "ember"), mon(t, d, "rattata", 10, "tackle"))

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Again})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.LogLines), 2)
	assert.Contains(t, res.LogLines[0], "used Tackle!")
	assert.Contains(t, res.LogLines, "Charmander used Ember!")
}

func TestProcessRound_EasyHitsHarderThanHard(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	hard, err := e.ProcessRound(fight(t, mon(t, d, "rattata", 30, "tackle"), mon(t, d, "rattata", 30, "tackle")), battle.RoundInput{Outcome: battle.Hard})
	require.NoError(t, err)
	easy, err := e.ProcessRound(fight(t, mon(t, d, "rattata", 30, "tackle"), mon(t, d, "rattata", 30, "tackle")), battle.RoundInput{Outcome: battle.Easy})
	require.NoError(t, err)
	assert.Greater(t, easy.AttackerDamage, hard.AttackerDamage)
}

func TestProcessRound_EmptyMoveSetStruggles(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	s := fight(t, mon(t, d, "rattata", 10), mon(t, d, "rattata", 10, "tackle"))
	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	assert.Contains(t, res.LogLines, "Rattata used Struggle!")
	assert.Greater(t, res.AttackerDamage, 0)
}

func TestProcessRound_AsleepPlayerLosesTurn(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "rattata", 10, "tackle")
	player.Status = creature.StatusAsleep
	player.StatusTurns = 2
	wild := mon(t, d, "rattata", 10, "tackle")
	s := fight(t, player, wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	assert.Zero(t, res.AttackerDamage)
	assert.Equal(t, wild.MaxHP, wild.CurrentHP)
	assert.Equal(t, []string{"Rattata is fast asleep."}, res.LogLines)
	assert.Equal(t, 1, player.StatusTurns)
}

func TestProcessRound_ChosenMove(t *testing.T) {
	d := testDex(t)
	cfg := battleConfig()
	cfg.ChooseMoves = true
	e := newEngine(t, cfg, highSrc{})
	wild := mon(t, d, "rattata", 10, "tackle")
	s := fight(t, mon(t, d, "charmander", 10, "ember", "growl"), wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good, Move: "Ember"})
	require.NoError(t, err)
	assert.Contains(t, res.LogLines, "Charmander used Ember!")
}

func TestProcessRound_InvalidChoiceRollsBack(t *testing.T) {
	d := testDex(t)
	cfg := battleConfig()
	cfg.ChooseMoves = true
	e := newEngine(t, cfg, highSrc{})
	player := mon(t, d, "charmander", 10, "ember")
	wild := mon(t, d, "rattata", 10, "tackle")
	s := fight(t, player, wild)

	_, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Again, Move: "megapunch"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, battle.ErrInvalidChoice))
	assert.Equal(t, 0, s.TotalReviews)
	assert.Equal(t, 0, s.Round)
	assert.Equal(t, wild.MaxHP, wild.CurrentHP)
	assert.Equal(t, player.MaxHP, player.CurrentHP)
	assert.Same(t, player, s.Player)
}

func TestProcessRound_UnknownOutcome(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	s := fight(t, mon(t, d, "rattata", 10, "tackle"), mon(t, d, "rattata", 10, "tackle"))
	_, err := e.ProcessRound(s, battle.RoundInput{Outcome: "meh"})
	assert.True(t, errors.Is(err, battle.ErrUnknownOutcome))
	assert.Equal(t, 0, s.TotalReviews)
}

func TestWildFaints_DefeatIsIdempotent(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "machop", 50, "megapunch")
	wild := mon(t, d, "rattata", 7, "tackle")
	s := fight(t, player, wild)

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	assert.Equal(t, battle.SideWild, res.FaintedSide)
	assert.Nil(t, res.Resolution)
	assert.Contains(t, res.LogLines, "Rattata fainted!")

	_, err = e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	assert.True(t, errors.Is(err, battle.ErrPendingDecisionRequired))

	r, err := e.Defeat(s)
	require.NoError(t, err)
	assert.Equal(t, battle.Defeated, r.Kind)
	assert.False(t, r.Repeat)
	assert.Equal(t, 51, r.Report.Experience)
	assert.Equal(t, 10, r.TrainerXP)
	xp, evs, defeated := player.XP, player.EV, player.Defeated
	assert.Equal(t, 1, defeated)

	again, err := e.Defeat(s)
	require.NoError(t, err)
	assert.True(t, again.Repeat)
	caught, err := e.Catch(s)
	require.NoError(t, err)
	assert.True(t, caught.Repeat)
	assert.Equal(t, battle.Defeated, caught.Kind)
	assert.Equal(t, xp, player.XP)
	assert.Equal(t, evs, player.EV)
	assert.Equal(t, defeated, player.Defeated)
	assert.Equal(t, 10, s.Trainer.XP)

	assert.False(t, s.Active())
	_, err = e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	assert.True(t, errors.Is(err, battle.ErrNoEncounter))
}

func TestCatch(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	wild := mon(t, d, "rattata", 7, "tackle")
	s := fight(t, mon(t, d, "machop", 50, "megapunch"), wild)

	_, err := e.Catch(s)
	assert.True(t, errors.Is(err, battle.ErrInvalidChoice), "wild has not fainted")

	_, err = e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
	require.NoError(t, err)
	r, err := e.Catch(s)
	require.NoError(t, err)
	require.NotNil(t, r.Creature)
	assert.Equal(t, "rattata", r.Creature.Species)
	assert.Equal(t, r.Creature.MaxHP, r.Creature.CurrentHP)
	assert.Equal(t, creature.StatusNone, r.Creature.Status)
	assert.Equal(t, []string{"You caught Rattata!"}, r.Messages)

	again, err := e.Catch(s)
	require.NoError(t, err)
	assert.True(t, again.Repeat)
	assert.Equal(t, 10, s.Trainer.XP)
	assert.Zero(t, s.Player.XP)
}

func TestAutomaticBattle(t *testing.T) {
	d := testDex(t)
	for mode, kind := range map[string]battle.ResolutionKind{config.AutoCatch: battle.Caught, config.AutoDefeat: battle.Defeated} {
		cfg := battleConfig()
		cfg.AutomaticBattle = mode
		e := newEngine(t, cfg, highSrc{})
		s := fight(t, mon(t, d, "machop", 50, "megapunch"), mon(t, d, "rattata", 7, "tackle"))

		res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Good})
		require.NoError(t, err, mode)
		require.NotNil(t, res.Resolution, mode)
		assert.Equal(t, kind, res.Resolution.Kind, mode)
		assert.False(t, s.Active(), mode)
	}
}

func TestPlayerFaint_WildFleesAndNextEncounterRestores(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "rattata", 10, "tackle")
	player.TakeDamage(player.MaxHP - 1)
	s := fight(t, player, mon(t, d, "machop", 50, "megapunch"))

	res, err := e.ProcessRound(s, battle.RoundInput{Outcome: battle.Again})
	require.NoError(t, err)
	assert.Equal(t, battle.SidePlayer, res.FaintedSide)
	assert.Equal(t, 1, res.DefenderDamage)
	assert.Equal(t, "The wild Machop fled!", res.LogLines[len(res.LogLines)-1])
	assert.True(t, player.Fainted())
	assert.False(t, s.Active())

	_, err = e.Defeat(s)
	assert.True(t, errors.Is(err, battle.ErrNoEncounter))

	_, err = e.NewEncounter(s)
	require.NoError(t, err)
	assert.False(t, player.Fainted())
	assert.Equal(t, player.MaxHP, player.CurrentHP)
}

func TestDefeat_DecisionsSuspendAndResume(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "charmander", 15, "scratch", "growl", "ember", "smokescreen")
	player.XP = 15*15*15 - 1
	wild := mon(t, d, "rattata", 7, "tackle")
	wild.BaseExperience = 7
	wild.TakeDamage(wild.MaxHP)
	s := fight(t, player, wild)

	r, err := e.Defeat(s)
	require.NoError(t, err)
	assert.Equal(t, 16, player.Level)
	require.Equal(t, []progression.Decision{
		{Kind: progression.MoveReplacement, Move: "dragonbreath"},
		{Kind: progression.Evolution, Species: "charmeleon", Trigger: "level"},
	}, s.Pending())
	assert.Equal(t, s.Pending(), r.Report.Pending)

	_, err = e.NewEncounter(s)
	assert.True(t, errors.Is(err, battle.ErrPendingDecisionRequired))

	_, err = e.ResolveEvolution(s, true)
	assert.True(t, errors.Is(err, battle.ErrInvalidChoice), "move decision comes first")
	_, err = e.ResolveMoveReplacement(s, 7)
	assert.True(t, errors.Is(err, battle.ErrInvalidChoice))
	assert.Len(t, s.Pending(), 2)

	_, err = e.ResolveMoveReplacement(s, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"scratch", "growl", "dragonbreath", "smokescreen"}, player.Moves)

	msgs, err := e.ResolveEvolution(s, true)
	require.NoError(t, err)
	assert.Equal(t, "charmeleon", player.Species)
	assert.Equal(t, []string{"Congratulations! Charmander evolved into Charmeleon!"}, msgs)
	assert.Empty(t, s.Pending())

	_, err = e.ResolveEvolution(s, true)
	assert.True(t, errors.Is(err, battle.ErrNoPendingDecision))

	_, err = e.NewEncounter(s)
	require.NoError(t, err)
}

func TestDismissDecisions_KeepsMovesAndCancelsEvolution(t *testing.T) {
	d := testDex(t)
	e := newEngine(t, battleConfig(), highSrc{})
	player := mon(t, d, "charmander", 15, "scratch", "growl", "ember", "smokescreen")
	player.XP = 15*15*15 - 1
	wild := mon(t, d, "rattata", 7, "tackle")
	wild.BaseExperience = 7
	wild.TakeDamage(wild.MaxHP)
	s := fight(t, player, wild)
	_, err := e.Defeat(s)
	require.NoError(t, err)

	msgs := e.DismissDecisions(s)
	assert.Equal(t, []string{"Charmander did not learn Dragonbreath.", "Charmander did not evolve."}, msgs)
	assert.Empty(t, s.Pending())
	assert.Equal(t, "charmander", player.Species)
	assert.Equal(t, []string{"scratch", "growl", "ember", "smokescreen"}, player.Moves)
}

func TestProcessRound_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := testDex(rt)
		cfg := battleConfig()
		cfg.ReviewsPerRound = rapid.IntRange(1, 3).Draw(rt, "reviews_per_round")
		cfg.AutomaticBattle = rapid.SampledFrom([]string{config.AutoNone, config.AutoCatch, config.AutoDefeat}).Draw(rt, "mode")
		e := battle.NewEngine(cfg, d, condition.DefaultRegistry(), nil, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), zap.NewNop())
		player := mon(rt, d, "rattata", rapid.IntRange(1, 60).Draw(rt, "level"), "tackle")
		s := battle.NewState(player, progression.Trainer{})
		_, err := e.NewEncounter(s)
		require.NoError(rt, err)

		outcomes := []battle.Outcome{battle.Again, battle.Hard, battle.Good, battle.Easy}
		for i := 0; i < 40 && s.Active(); i++ {
			res, err := e.ProcessRound(s, battle.RoundInput{Outcome: rapid.SampledFrom(outcomes).Draw(rt, "outcome")})
			if errors.Is(err, battle.ErrPendingDecisionRequired) {
				_, err = e.Defeat(s)
				require.NoError(rt, err)
				e.DismissDecisions(s)
				break
			}
			require.NoError(rt, err)
			for _, c := range []*creature.Creature{player, s.Wild} {
				assert.GreaterOrEqual(rt, c.CurrentHP, 0)
				assert.LessOrEqual(rt, c.CurrentHP, c.MaxHP)
				assert.Equal(rt, c.CurrentHP == 0, c.Fainted())
			}
			if res.Skipped {
				assert.Zero(rt, res.AttackerDamage+res.DefenderDamage)
			}
		}
	})
}
