package fileutil

import "os"

// Checker reports whether an expected artifact has materialized on disk.
// Actions use it as the oracle for datamap skip flags; tests substitute
// fakes so skip semantics can be exercised without touching a real
// filesystem.
type Checker interface {
	Exists(path string) bool
}

// OSChecker checks the real filesystem.
type OSChecker struct{}

func (OSChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(path string) bool

func (f CheckerFunc) Exists(path string) bool { return f(path) }
