package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkingDir, err = expandPath(c.Paths.WorkingDir); err != nil {
		return fmt.Errorf("paths.working_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Imaging.Imager = strings.ToLower(strings.TrimSpace(c.Imaging.Imager))
	if c.Imaging.ImagerRoot != "" {
		if c.Imaging.ImagerRoot, err = expandPath(c.Imaging.ImagerRoot); err != nil {
			return fmt.Errorf("imaging.imager_root: %w", err)
		}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
