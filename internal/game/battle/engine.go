package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/config"
	"github.com/cory-johannsen/creaturebattle/internal/game/combat"
	"github.com/cory-johannsen/creaturebattle/internal/game/condition"
	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/encounter"
	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
)

// Engine runs battles. It holds no per-player state; every operation takes
// the State it acts on.
type Engine struct {
	cfg        config.BattleConfig
	encounters *encounter.Generator
	combat     *combat.Resolver
	status     *condition.Engine
	progress   *progression.Engine
	src        dice.Source
	logger     *zap.Logger
}

// NewEngine wires the rule engines over the dataset.
//
// Precondition: cfg must be valid; d, conditions, src and logger must be non-nil.
// scripts may be nil, disabling scripted evolutions.
func NewEngine(cfg config.BattleConfig, d *dex.Dex, conditions *condition.Registry, scripts progression.ConditionEvaluator, src dice.Source, logger *zap.Logger) *Engine {
	status := condition.NewEngine(conditions, src, logger)
	return &Engine{
		cfg:        cfg,
		encounters: encounter.NewGenerator(d, src, logger, cfg.MaxEncounterAttempts, cfg.LevelCapDisabled),
		combat:     combat.NewResolver(d, status, src, logger),
		status:     status,
		progress:   progression.NewEngine(d, scripts, src, logger, cfg.LevelCapDisabled),
		src:        src,
		logger:     logger,
	}
}

// Multiplier returns the damage multiplier configured for o.
func (e *Engine) Multiplier(o Outcome) (float64, error) {
	m := e.cfg.Multipliers
	switch o {
	case Again:
		return m.Again, nil
	case Hard:
		return m.Hard, nil
	case Good:
		return m.Good, nil
	case Easy:
		return m.Easy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, o)
}

// NewEncounter starts an encounter with a freshly generated wild creature.
// The player's creature is restored to full HP with its battle state cleared.
//
// Precondition: no decision is pending.
// Postcondition: on success s.Active(); on error s is unchanged.
func (e *Engine) NewEncounter(s *State) ([]string, error) {
	if len(s.pending) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPendingDecisionRequired, s.pending[0])
	}
	wild, err := e.encounters.Pick(encounter.Request{
		TotalReviews:  s.TotalReviews,
		DailyAverage:  e.cfg.DailyAverage,
		PlayerLevel:   s.Trainer.Level(),
		CreatureLevel: s.Player.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("starting encounter: %w", err)
	}
	s.Player.Restore()
	s.Wild = wild
	s.Round = 0
	s.reviews = 0
	s.resolved = nil
	s.over = false

	e.logger.Info("encounter started",
		zap.String("wild", wild.Species),
		zap.Int("level", wild.Level),
		zap.String("tier", string(wild.Tier)),
		zap.Bool("shiny", wild.Shiny),
	)
	prefix := "A wild"
	if wild.Shiny {
		prefix = "A shiny wild"
	}
	return []string{fmt.Sprintf("%s %s appeared! (level %d)", prefix, wild.DisplayName(), wild.Level)}, nil
}

// RoundInput is one review event.
type RoundInput struct {
	Outcome Outcome
	// Move is the player's chosen move in move-choice mode; ignored otherwise.
	// Empty picks a known move at random.
	Move string
}

// RoundResult reports one review event.
type RoundResult struct {
	// Skipped is true when the review only advanced the round counter.
	Skipped  bool
	LogLines []string
	// AttackerDamage is the damage the player's creature dealt.
	AttackerDamage int
	// DefenderDamage is the damage the wild creature dealt back.
	DefenderDamage int
	FaintedSide    Side
	// Pending lists decisions raised this round, if any.
	Pending []progression.Decision
	// Resolution is set when automatic battle mode resolved the faint.
	Resolution *Resolution
}

// ProcessRound feeds one review event into the encounter. Every
// ReviewsPerRound-th review triggers an exchange: the player's creature
// attacks with the outcome's multiplier, and on a failed review (multiplier
// below 1) the wild creature answers with twice that multiplier.
//
// Postcondition: on error s is exactly as before the call.
func (e *Engine) ProcessRound(s *State, in RoundInput) (RoundResult, error) {
	if err := e.ready(s); err != nil {
		return RoundResult{}, err
	}
	cp := s.checkpoint()
	res, err := e.exchange(s, in)
	if err != nil {
		s.rollback(cp)
		e.logger.Warn("round failed, state rolled back",
			zap.Int("round", cp.round+1),
			zap.String("outcome", string(in.Outcome)),
			zap.Error(err),
		)
		return RoundResult{}, err
	}
	return res, nil
}

func (e *Engine) ready(s *State) error {
	if !s.Active() {
		return ErrNoEncounter
	}
	if len(s.pending) > 0 {
		return fmt.Errorf("%w: %s", ErrPendingDecisionRequired, s.pending[0])
	}
	if s.Wild.Fainted() {
		return fmt.Errorf("%w: %s fainted; catch or defeat it", ErrPendingDecisionRequired, s.Wild.DisplayName())
	}
	return nil
}

func (e *Engine) exchange(s *State, in RoundInput) (RoundResult, error) {
	multiplier, err := e.Multiplier(in.Outcome)
	if err != nil {
		return RoundResult{}, err
	}
	s.TotalReviews++
	s.reviews++
	if s.reviews < e.cfg.ReviewsPerRound {
		return RoundResult{Skipped: true}, nil
	}
	s.reviews = 0
	s.Round++

	var res RoundResult
	player, wild := s.Player, s.Wild

	move, err := e.playerMove(player, in.Move)
	if err != nil {
		return RoundResult{}, err
	}

	// On a failed review the wild creature strikes first; a faint ends the
	// encounter before the player's creature can answer.
	if multiplier < 1 {
		var wildMove string
		if len(wild.Moves) > 0 {
			wildMove = dice.Pick(e.src, wild.Moves)
		}
		if out, ok := e.turn(wild, player, wildMove, multiplier*2, &res); ok {
			res.DefenderDamage = out.Damage
		}
		if player.Fainted() {
			res.FaintedSide = SidePlayer
			res.LogLines = append(res.LogLines, fmt.Sprintf("The wild %s fled!", wild.DisplayName()))
			s.over = true
			e.logger.Info("player creature fainted", zap.String("wild", wild.Species), zap.Int("round", s.Round))
			return res, nil
		}
	}

	if out, ok := e.turn(player, wild, move, multiplier, &res); ok {
		res.AttackerDamage = out.Damage
	}

	if wild.Fainted() {
		res.FaintedSide = SideWild
		if err := e.autoResolve(s, &res); err != nil {
			return RoundResult{}, err
		}
	}
	return res, nil
}

// turn lets attacker act if its status allows and appends the log lines.
func (e *Engine) turn(attacker, defender *creature.Creature, move string, multiplier float64, res *RoundResult) (combat.AttackOutcome, bool) {
	ok, msgs := e.status.CanAct(attacker)
	res.LogLines = append(res.LogLines, msgs...)
	if !ok {
		return combat.AttackOutcome{}, false
	}
	out := e.combat.UseMove(attacker, defender, move, multiplier)
	res.LogLines = append(res.LogLines, out.Messages...)
	return out, true
}

// playerMove picks the move the player's creature uses. An empty move set
// yields "", which resolves to the fallback attack.
func (e *Engine) playerMove(c *creature.Creature, chosen string) (string, error) {
	if e.cfg.ChooseMoves && chosen != "" {
		if !c.HasMove(chosen) {
			return "", fmt.Errorf("%w: %s does not know %s", ErrInvalidChoice, c.DisplayName(), creature.Title(chosen))
		}
		return chosen, nil
	}
	if len(c.Moves) == 0 {
		return "", nil
	}
	return dice.Pick(e.src, c.Moves), nil
}

func (e *Engine) autoResolve(s *State, res *RoundResult) error {
	var (
		r   Resolution
		err error
	)
	switch e.cfg.AutomaticBattle {
	case config.AutoCatch:
		r, err = e.Catch(s)
	case config.AutoDefeat:
		r, err = e.Defeat(s)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	res.Resolution = &r
	res.LogLines = append(res.LogLines, r.Messages...)
	res.Pending = s.Pending()
	return nil
}
