package domain

import "time"

// RestartState is the lifecycle phase of a stack restart request.
type RestartState string

const (
	RestartIdle         RestartState = "idle"
	RestartAwaitConfirm RestartState = "awaiting_confirmation"
	RestartStopping     RestartState = "stopping"
	RestartSettling     RestartState = "settling"
	RestartStarting     RestartState = "starting"
	RestartCompleted    RestartState = "completed"
	RestartFailed       RestartState = "failed"
)

// RestartRequest tracks one two-phase restart of the managed stack.
// At most one request may be past AwaitConfirm at a time.
type RestartRequest struct {
	ID        string
	Initiator int64
	State     RestartState
	StartedAt time.Time
}

// RestartResult is the terminal outcome of a restart, carrying the captured
// output of both phases for operator visibility.
type RestartResult struct {
	ID          string
	Completed   bool
	StopOK      bool
	StartOK     bool
	StopOutput  string
	StartOutput string
	Duration    time.Duration
}
