// Package config provides Viper-based configuration loading for the battle engine host.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Automatic battle modes: what happens when the wild creature faints.
const (
	AutoNone   = "none"
	AutoCatch  = "catch"
	AutoDefeat = "defeat"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// MultiplierConfig maps each review outcome to the damage multiplier used
// for the exchange it triggers.
type MultiplierConfig struct {
	Again float64 `mapstructure:"again"`
	Hard  float64 `mapstructure:"hard"`
	Good  float64 `mapstructure:"good"`
	Easy  float64 `mapstructure:"easy"`
}

// BattleConfig holds the rules knobs of the battle engine.
type BattleConfig struct {
	// ReviewsPerRound is the number of review events needed to trigger one exchange.
	ReviewsPerRound int `mapstructure:"reviews_per_round"`
	// LevelCapDisabled lets creatures level past 100.
	LevelCapDisabled bool `mapstructure:"level_cap_disabled"`
	// ChooseMoves enables move-choice mode (experience is halved).
	ChooseMoves bool `mapstructure:"choose_moves"`
	// AutomaticBattle is one of "none", "catch", "defeat".
	AutomaticBattle string `mapstructure:"automatic_battle"`
	// DailyAverage is the player's average daily review count.
	DailyAverage int `mapstructure:"daily_average"`
	// MaxEncounterAttempts bounds wild creature selection retries.
	MaxEncounterAttempts int              `mapstructure:"max_encounter_attempts"`
	Multipliers          MultiplierConfig `mapstructure:"multipliers"`
}

// ContentConfig locates the static datasets.
type ContentConfig struct {
	Moves         string `mapstructure:"moves"`
	Species       string `mapstructure:"species"`
	Tiers         string `mapstructure:"tiers"`
	ConditionsDir string `mapstructure:"conditions_dir"`
	// ScriptInstructionLimit caps Lua opcodes per evolution condition script; 0 = default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.ReviewsPerRound < 1 {
		errs = append(errs, fmt.Sprintf("battle.reviews_per_round must be >= 1, got %d", b.ReviewsPerRound))
	}
	validModes := map[string]bool{AutoNone: true, AutoCatch: true, AutoDefeat: true}
	if !validModes[b.AutomaticBattle] {
		errs = append(errs, fmt.Sprintf("battle.automatic_battle must be one of [none, catch, defeat], got %q", b.AutomaticBattle))
	}
	if b.DailyAverage < 0 {
		errs = append(errs, fmt.Sprintf("battle.daily_average must be >= 0, got %d", b.DailyAverage))
	}
	if b.MaxEncounterAttempts < 1 {
		errs = append(errs, fmt.Sprintf("battle.max_encounter_attempts must be >= 1, got %d", b.MaxEncounterAttempts))
	}
	m := b.Multipliers
	if m.Again <= 0 || m.Hard <= 0 || m.Good <= 0 || m.Easy <= 0 {
		errs = append(errs, "battle.multipliers must all be > 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.Moves == "" {
		errs = append(errs, "content.moves must not be empty")
	}
	if c.Species == "" {
		errs = append(errs, "content.species must not be empty")
	}
	if c.Tiers == "" {
		errs = append(errs, "content.tiers must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, "content.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with CREATURE_ prefix
	v.SetEnvPrefix("CREATURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance populated only with default values.
//
// Postcondition: LoadFromViper(Defaults()) returns a valid Config.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "creature")
	v.SetDefault("database.password", "creature")
	v.SetDefault("database.name", "creature")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("battle.reviews_per_round", 2)
	v.SetDefault("battle.level_cap_disabled", false)
	v.SetDefault("battle.choose_moves", false)
	v.SetDefault("battle.automatic_battle", AutoNone)
	v.SetDefault("battle.daily_average", 100)
	v.SetDefault("battle.max_encounter_attempts", 50)
	v.SetDefault("battle.multipliers.again", 0.5)
	v.SetDefault("battle.multipliers.hard", 0.8)
	v.SetDefault("battle.multipliers.good", 1.0)
	v.SetDefault("battle.multipliers.easy", 1.5)

	v.SetDefault("content.moves", "content/moves.yaml")
	v.SetDefault("content.species", "content/species.yaml")
	v.SetDefault("content.tiers", "content/tiers.yaml")
	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.script_instruction_limit", 0)
}
