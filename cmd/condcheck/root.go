package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sandrolain/gocondition/pkg/compiler"
	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/world"
)

// config holds the resolved settings of one invocation.
type config struct {
	LogLevel    string `mapstructure:"log_level"`
	CacheSize   int    `mapstructure:"cache_size"`
	Concurrency int    `mapstructure:"concurrency"`
	Seed        uint64 `mapstructure:"seed"`
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "condcheck",
		Short: "Compile, inspect and evaluate conditions",
		Long: `condcheck compiles condition definitions against the sample world
types, lists the members a condition can reference and evaluates ad-hoc
expressions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v)
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.Int("cache-size", 0, "compilation cache capacity, 0 for unbounded")
	pf.Int("concurrency", 4, "definitions compiled in parallel")
	pf.Uint64("seed", 1, "seed of the random source used by eval")
	for key, flag := range map[string]string{
		"log_level":   "log-level",
		"cache_size":  "cache-size",
		"concurrency": "concurrency",
		"seed":        "seed",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	env := &environment{v: v}
	root.AddCommand(
		newCheckCmd(env),
		newMembersCmd(env),
		newEvalCmd(env),
		newPipeCmd(env),
	)
	return root
}

func loadConfig(v *viper.Viper) error {
	v.SetConfigName("condcheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("CONDCHECK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// environment builds the objects every command needs from the settings.
type environment struct {
	v *viper.Viper
}

func (e *environment) config() (config, error) {
	var cfg config
	if err := e.v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}

func (e *environment) logger(cfg config) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// session is a registry with the world types and a compiler over it.
type session struct {
	cfg      config
	log      *slog.Logger
	reg      *registry.Registry
	types    *world.Types
	compiler *compiler.Compiler[world.Globals]
}

func (e *environment) session() (*session, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	log, err := e.logger(cfg)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	wt, err := world.Register(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register world types: %w", err)
	}
	c := compiler.New(reg, world.Globals{Year: 1, Season: "spring"},
		compiler.WithLogger(log),
		compiler.WithCacheSize(cfg.CacheSize),
	)
	return &session{cfg: cfg, log: log, reg: reg, types: wt, compiler: c}, nil
}
