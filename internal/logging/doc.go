// Package logging assembles the structured slog loggers used across
// facetflow components.
//
// It centralizes level and output plumbing and exposes typed attribute
// helpers plus standardized field names so pipeline code tags log lines
// with directions, operations, and actions consistently. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
