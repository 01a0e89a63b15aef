package runledger

import "time"

// Status represents the lifecycle of a ledger run.
type Status string

const (
	StatusPrepared  Status = "prepared"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusPrepared:  {},
	StatusRunning:   {},
	StatusSucceeded: {},
	StatusFailed:    {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Run is one recorded action invocation.
type Run struct {
	ID            string
	Direction     string
	Operation     string
	Action        string
	ParsetFile    string
	OutputDatamap string
	Status        Status
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
