package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facetflow/internal/config"
	"facetflow/internal/direction"
	"facetflow/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(cfg.Paths.WorkingDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func (env *cliTestEnv) saveDirection(t *testing.T, name string, p direction.Params) *direction.Direction {
	t.Helper()
	d := direction.New(name, p, env.cfg.Paths.WorkingDir)
	if err := d.SaveState(); err != nil {
		t.Fatalf("save direction %s: %v", name, err)
	}
	return d
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nworking_dir = %q\nlog_dir = %q\n\n[imaging]\nimager = %q\ncell_arcsec = %v\nnterms = %d\nmax_cpu = %d\n",
		cfg.Paths.WorkingDir,
		cfg.Paths.LogDir,
		cfg.Imaging.Imager,
		cfg.Imaging.CellArcsec,
		cfg.Imaging.NTerms,
		cfg.Imaging.MaxCPU,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
