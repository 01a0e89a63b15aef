package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"facetflow/internal/config"
	"facetflow/internal/direction"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withWorkspaceLock runs fn while holding the workspace lock, so a
// concurrent reset cannot race a running pipeline over the same state
// files.
func (c *commandContext) withWorkspaceLock(fn func(cfg *config.Config) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("workspace %s is locked by another facetflow process", cfg.Paths.WorkingDir)
	}
	defer lock.Unlock()

	return fn(cfg)
}

// loadDirection resolves a named direction from the workspace, mapping
// load outcomes to operator-facing errors.
func (c *commandContext) loadDirection(name string) (*direction.Direction, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	d := direction.New(name, direction.Params{}, cfg.Paths.WorkingDir)
	result := d.LoadState()
	switch result.Outcome {
	case direction.LoadOK:
		return d, nil
	case direction.LoadMissing:
		return nil, fmt.Errorf("unknown direction %q: no state under %s", name, cfg.StateDir())
	default:
		return nil, fmt.Errorf("direction %q has an unreadable state snapshot: %v", name, result.Err)
	}
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

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}
