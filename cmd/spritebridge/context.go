package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/history"
	"spritebridge/internal/logging"
	"spritebridge/internal/pipeline"
	"spritebridge/internal/services/aseprite"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

// ensureLogger builds the console+file logger once. JSON and quiet modes
// suppress info chatter so stdout stays parseable.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		if c.quiet() || c.JSONMode() {
			logger = logging.WithLevelOverride(logger, slog.LevelWarn)
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newExporter(cfg *config.Config, logger *slog.Logger) (*aseprite.Client, error) {
	return aseprite.New(cfg.Aseprite.Binary, cfg.Aseprite.TimeoutSeconds, cfg.ScriptDir(), aseprite.WithLogger(logger))
}

// withRunner builds a pipeline runner, recording into the history store
// when it is enabled.
func (c *commandContext) withRunner(cfg *config.Config, fn func(*pipeline.Runner) error) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	exporter, err := c.newExporter(cfg, logger)
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, pipeline.WithRecorder(store))
	}
	runner, err := pipeline.New(cfg, exporter, opts...)
	if err != nil {
		return err
	}
	return fn(runner)
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func commandContextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
