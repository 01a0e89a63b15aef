package config

import (
	"errors"
	"fmt"
)

var validImagers = map[string]struct{}{
	"awimager": {},
	"casapy":   {},
	"wsclean":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateImaging(); err != nil {
		return err
	}
	if err := c.validateSelfcal(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkingDir == "" {
		return errors.New("paths.working_dir must be set")
	}
	return nil
}

func (c *Config) validateImaging() error {
	if _, ok := validImagers[c.Imaging.Imager]; !ok {
		return fmt.Errorf("imaging.imager must be one of awimager, casapy, wsclean (got %q)", c.Imaging.Imager)
	}
	if c.Imaging.CellArcsec <= 0 {
		return errors.New("imaging.cell_arcsec must be positive")
	}
	if c.Imaging.NTerms < 1 {
		return errors.New("imaging.nterms must be at least 1")
	}
	if c.Imaging.MaxCPU < 1 {
		return errors.New("imaging.max_cpu must be at least 1")
	}
	return nil
}

func (c *Config) validateSelfcal() error {
	if c.Selfcal.MaxResidualJy <= 0 {
		return errors.New("selfcal.max_residual_jy must be positive")
	}
	return nil
}
