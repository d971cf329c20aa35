package clone

import "time"

// State is the orchestrator state of a run.
type State int

// Run states. Completed and Aborted are terminal.
const (
	StateIdle State = iota
	StateResolving
	StateStreaming
	StatePaused
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateStreaming:
		return "streaming"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// OutcomeKind classifies the result of replicating one message.
type OutcomeKind int

// Replication outcomes.
const (
	OutcomeNone OutcomeKind = iota
	OutcomeReplicated
	OutcomeSkipped
	OutcomeThrottled
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReplicated:
		return "replicated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Outcome is the result of Replicator.Replicate.
type Outcome struct {
	Kind OutcomeKind
	// Wait is set for OutcomeThrottled.
	Wait time.Duration
	// Err is set for OutcomeFailed.
	Err error
}
