package clone

import (
	"sync"
	"sync/atomic"
	"time"
)

// progressBuffer is the number of events queued for a slow observer before
// intermediate events are dropped.
const progressBuffer = 256

// EventKind classifies a ProgressEvent.
type EventKind int

// Event kinds.
const (
	EventStatus EventKind = iota
	EventMessage
	EventThrottle
	EventCooldown
	EventCheckpointError
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventMessage:
		return "message"
	case EventThrottle:
		return "throttle"
	case EventCooldown:
		return "cooldown"
	case EventCheckpointError:
		return "checkpoint_error"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ProgressEvent is an immutable snapshot pushed to observers after every
// processed message, on notable status changes, and once when the run ends.
type ProgressEvent struct {
	Kind          EventKind
	State         State
	Processed     int
	LastMessageID int
	Errors        int
	Status        string

	// MessageID and Outcome are set for EventMessage.
	MessageID int
	Outcome   OutcomeKind
	// Wait is set for EventThrottle and EventCooldown.
	Wait time.Duration
	// Err is set for EventCheckpointError and for an aborted EventFinished.
	Err error
	// Source and Target are the resolved peer ids, zero before resolution.
	Source int64
	Target int64
	// Final marks the last event of a run.
	Final bool
}

// Observer consumes progress events. It runs on its own goroutine and never
// blocks the clone loop.
type Observer func(ProgressEvent)

// Observers fans one event out to every non-nil observer, in order.
func Observers(obs ...Observer) Observer {
	var live []Observer
	for _, o := range obs {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(ev ProgressEvent) {
		for _, o := range live {
			o(ev)
		}
	}
}

// pump delivers events to an observer from a dedicated goroutine.
// Intermediate events are dropped when the buffer is full; final events are
// always delivered.
type pump struct {
	ch      chan ProgressEvent
	wg      sync.WaitGroup
	dropped atomic.Int64
	closed  bool
}

func newPump(obs Observer) *pump {
	if obs == nil {
		return &pump{}
	}
	p := &pump{ch: make(chan ProgressEvent, progressBuffer)}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for ev := range p.ch {
			obs(ev)
		}
	}()
	return p
}

func (p *pump) emit(ev ProgressEvent) {
	if p.ch == nil || p.closed {
		return
	}
	if ev.Final {
		p.ch <- ev
		return
	}
	select {
	case p.ch <- ev:
	default:
		p.dropped.Add(1)
	}
}

// close waits until every queued event has been delivered.
func (p *pump) close() {
	if p.ch == nil || p.closed {
		return
	}
	p.closed = true
	close(p.ch)
	p.wg.Wait()
}
