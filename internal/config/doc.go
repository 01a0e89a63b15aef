// Package config loads and validates the facetflow pipeline configuration.
//
// Configuration lives in a single TOML file. Defaults are embedded in the
// binary so a fresh install can run with only paths.working_dir set, and
// every imaging and action parameter the pipeline derives at runtime comes
// from the loaded Config rather than package-level tables.
package config
