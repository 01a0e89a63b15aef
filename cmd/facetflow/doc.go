// Package main hosts the facetflow CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces workspace inspection (direction
// status, run history, persisted state) and maintenance operations
// (stage-group resets, configuration scaffolding) over the internal
// workflow packages. It centralizes configuration resolution and
// workspace locking so subcommands can focus on user experience instead
// of wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
