// Package main provides battlesim, a command-line host for the battle engine.
// It reads review outcomes and decisions from stdin, one per line, and writes
// the battle log to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/config"
	"github.com/cory-johannsen/creaturebattle/internal/game/battle"
	"github.com/cory-johannsen/creaturebattle/internal/game/command"
	"github.com/cory-johannsen/creaturebattle/internal/game/condition"
	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
	"github.com/cory-johannsen/creaturebattle/internal/game/dex"
	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
	"github.com/cory-johannsen/creaturebattle/internal/observability"
	"github.com/cory-johannsen/creaturebattle/internal/scripting"
	"github.com/cory-johannsen/creaturebattle/internal/server"
	"github.com/cory-johannsen/creaturebattle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	playerID := flag.String("player", "local", "player id used for persistence")
	starter := flag.String("starter", "pikachu", "species of a new player's first creature")
	starterLevel := flag.Int("starter-level", 5, "level of a new player's first creature")
	seed := flag.Uint64("seed", 0, "seed for reproducible battles; 0 = crypto randomness")
	noDB := flag.Bool("no-db", false, "run without PostgreSQL persistence")
	migrateDir := flag.String("migrate", "", "apply the migrations in this directory before starting")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	d, err := dex.Load(cfg.Content.Moves, cfg.Content.Species, cfg.Content.Tiers)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	conditions, err := loadConditions(cfg.Content.ConditionsDir, logger)
	if err != nil {
		logger.Fatal("loading conditions", zap.Error(err))
	}
	scripts := scripting.NewEvaluator(roller, logger, cfg.Content.ScriptInstructionLimit)
	engine := battle.NewEngine(cfg.Battle, d, conditions, scripts, roller, logger)

	var st store = memoryStore{}
	if !*noDB {
		if *migrateDir != "" {
			version, err := postgres.MigrateUp(cfg.Database.DSN(), *migrateDir)
			if err != nil {
				logger.Fatal("migrating database", zap.Error(err))
			}
			logger.Info("schema ready", zap.Uint("version", version))
		}
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		st = &dbStore{
			creatures: pool.Creatures(cfg.Battle.LevelCapDisabled),
			trainers:  pool.Trainers(),
		}
	}

	player, err := st.LoadMain(ctx, *playerID)
	switch {
	case errors.Is(err, postgres.ErrCreatureNotFound):
		player, err = newStarter(d, *starter, *starterLevel, roller, cfg.Battle.LevelCapDisabled)
		if err != nil {
			logger.Fatal("creating starter", zap.Error(err))
		}
		logger.Info("new player", zap.String("player", *playerID), zap.String("starter", player.Species))
	case err != nil:
		logger.Fatal("loading player creature", zap.Error(err))
	}
	progress, err := st.LoadTrainer(ctx, *playerID)
	if err != nil {
		logger.Fatal("loading trainer", zap.Error(err))
	}

	s := battle.NewState(player, progress.Trainer)
	s.TotalReviews = progress.TotalReviews

	logger.Info("battlesim ready",
		zap.String("player", *playerID),
		zap.String("creature", player.Species),
		zap.Int("level", player.Level),
		zap.Int("trainer_level", s.Trainer.Level()),
		zap.Duration("elapsed", time.Since(start)),
	)

	h := &host{
		ctx:      ctx,
		engine:   engine,
		state:    s,
		store:    st,
		commands: command.DefaultRegistry(),
		playerID: *playerID,
		logger:   logger,
		in:       os.Stdin,
		out:      os.Stdout,
		levelCap: cfg.Battle.LevelCapDisabled,
	}
	lc := server.NewLifecycle(logger)
	lc.Add("battle-host", h)
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("battlesim failed", zap.Error(err))
	}
}

func loadConditions(dir string, logger *zap.Logger) (*condition.Registry, error) {
	if dir == "" {
		return condition.DefaultRegistry(), nil
	}
	reg, err := condition.LoadDirectory(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("condition directory missing, using built-in conditions", zap.String("dir", dir))
		return condition.DefaultRegistry(), nil
	}
	return reg, err
}

func newStarter(d *dex.Dex, species string, level int, src dice.Source, levelCapDisabled bool) (*creature.Creature, error) {
	sp, err := d.Species(species)
	if err != nil {
		return nil, err
	}
	iv := func() int { return dice.Between(src, 1, creature.MaxIV) }
	c, err := creature.FromSpecies(sp, level, dex.StatBlock{HP: iv(), Atk: iv(), Def: iv(), SpA: iv(), SpD: iv(), Spe: iv()}, dex.StatBlock{}, levelCapDisabled)
	if err != nil {
		return nil, err
	}
	if abilities := sp.AbilityList(); len(abilities) > 0 {
		c.Ability = dice.Pick(src, abilities)
	}
	c.Moves, err = d.LearnableMoves(sp.Name, level, creature.MaxMoves, src)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// store is the persistence the host needs.
type store interface {
	LoadMain(ctx context.Context, playerID string) (*creature.Creature, error)
	SaveMain(ctx context.Context, playerID string, c *creature.Creature) error
	SaveCaught(ctx context.Context, playerID string, c *creature.Creature) (bool, error)
	ListCaught(ctx context.Context, playerID string) ([]*creature.Creature, error)
	LoadTrainer(ctx context.Context, playerID string) (postgres.TrainerProgress, error)
	SaveTrainer(ctx context.Context, playerID string, p postgres.TrainerProgress) error
}

type dbStore struct {
	creatures *postgres.CreatureRepository
	trainers  *postgres.TrainerRepository
}

func (s *dbStore) LoadMain(ctx context.Context, playerID string) (*creature.Creature, error) {
	return s.creatures.LoadMain(ctx, playerID)
}

func (s *dbStore) SaveMain(ctx context.Context, playerID string, c *creature.Creature) error {
	return s.creatures.SaveMain(ctx, playerID, c)
}

func (s *dbStore) SaveCaught(ctx context.Context, playerID string, c *creature.Creature) (bool, error) {
	return s.creatures.SaveCaught(ctx, playerID, c)
}

func (s *dbStore) ListCaught(ctx context.Context, playerID string) ([]*creature.Creature, error) {
	return s.creatures.ListCaught(ctx, playerID)
}

func (s *dbStore) LoadTrainer(ctx context.Context, playerID string) (postgres.TrainerProgress, error) {
	return s.trainers.Load(ctx, playerID)
}

func (s *dbStore) SaveTrainer(ctx context.Context, playerID string, p postgres.TrainerProgress) error {
	return s.trainers.Save(ctx, playerID, p)
}

// memoryStore discards everything; every run starts a new player.
type memoryStore struct{}

func (memoryStore) LoadMain(context.Context, string) (*creature.Creature, error) {
	return nil, postgres.ErrCreatureNotFound
}
func (memoryStore) SaveMain(context.Context, string, *creature.Creature) error { return nil }
func (memoryStore) SaveCaught(context.Context, string, *creature.Creature) (bool, error) {
	return true, nil
}
func (memoryStore) ListCaught(context.Context, string) ([]*creature.Creature, error) {
	return nil, nil
}
func (memoryStore) LoadTrainer(context.Context, string) (postgres.TrainerProgress, error) {
	return postgres.TrainerProgress{Trainer: progression.Trainer{}}, nil
}
func (memoryStore) SaveTrainer(context.Context, string, postgres.TrainerProgress) error { return nil }
