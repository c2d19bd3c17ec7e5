package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"whisperbatch/internal/config"
)

type globalFlags struct {
	config        string
	input         string
	output        string
	logLevel      string
	device        string
	model         string
	skipPreflight bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once, applies flag overrides and
// validates the result.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := c.configPath()
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = configLoadError(path, err)
			return
		}
		cfg.ApplyOverrides(config.Overrides{
			InputDir:  c.flags.input,
			OutputDir: c.flags.output,
			Device:    c.flags.device,
			Model:     c.flags.model,
			LogLevel:  c.flags.logLevel,
		})
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("configuration %s is invalid:\n%w", cfg.Path(), err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.flags == nil || strings.TrimSpace(c.flags.config) == "" {
		return defaultConfigPath
	}
	return strings.TrimSpace(c.flags.config)
}

func configLoadError(path string, err error) error {
	switch {
	case errors.Is(err, config.ErrNotFound):
		return fmt.Errorf("%w\ncreate one with `whisperbatch config init %s` or pass --config <path>", err, path)
	case errors.Is(err, config.ErrParse):
		return fmt.Errorf("%w\nfix the syntax or regenerate it with `whisperbatch config init <path>`", err)
	default:
		return fmt.Errorf("load config: %w", err)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
