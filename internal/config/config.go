package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkingDir string `toml:"working_dir"`
	LogDir     string `toml:"log_dir"`
}

// Imaging selects the external imaging tool and its shared parameters.
type Imaging struct {
	Imager     string  `toml:"imager"` // awimager, casapy, or wsclean
	ImagerRoot string  `toml:"imager_root"`
	CellArcsec float64 `toml:"cell_arcsec"`
	NTerms     int     `toml:"nterms"`
	MaxCPU     int     `toml:"max_cpu"`
}

// Selfcal contains convergence defaults for the iterative refinement loop.
type Selfcal struct {
	MaxResidualJy float64 `toml:"max_residual_jy"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Imaging Imaging `toml:"imaging"`
	Selfcal Selfcal `toml:"selfcal"`
	Logging Logging `toml:"logging"`
}

// StateDir is where per-direction state snapshots live.
func (c *Config) StateDir() string {
	return filepath.Join(c.Paths.WorkingDir, "state")
}

// DatamapDir is where persisted datamaps live.
func (c *Config) DatamapDir() string {
	return filepath.Join(c.Paths.WorkingDir, "datamaps")
}

// ModelDir is the root under which action working directories are created.
func (c *Config) ModelDir() string {
	return filepath.Join(c.Paths.WorkingDir, "models")
}

// PipelineDir holds the stage driver's per-operation output trees.
func (c *Config) PipelineDir() string {
	return filepath.Join(c.Paths.WorkingDir, "pipeline")
}

// LockFile guards mutating operations on the workspace.
func (c *Config) LockFile() string {
	return filepath.Join(c.Paths.WorkingDir, "facetflow.lock")
}

// DefaultConfigPath returns the expanded default configuration location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/facetflow/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load reads configuration from path, or from the default location when
// path is empty. A missing file yields defaults. It returns the config,
// the resolved path, and whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if os.IsNotExist(err) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

// EnsureDirectories creates every directory the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.WorkingDir,
		c.Paths.LogDir,
		c.StateDir(),
		c.DatamapDir(),
		c.ModelDir(),
		c.PipelineDir(),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			return home, nil
		}
		return filepath.Join(home, pathValue[2:]), nil
	}
	abs, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", pathValue, err)
	}
	return abs, nil
}
