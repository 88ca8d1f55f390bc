package apiclient

import (
	"fmt"
	"strings"
)

// State is a step in the life of one logical API request.
type State int

const (
	StatePending State = iota
	StateUnauthorized
	StateRefreshing
	StateRetried
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateUnauthorized:
		return "unauthorized"
	case StateRefreshing:
		return "refreshing"
	case StateRetried:
		return "retried"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	StatePending:      {StateSucceeded, StateFailed, StateUnauthorized},
	StateUnauthorized: {StateRefreshing, StateFailed},
	StateRefreshing:   {StateRetried, StateFailed},
	StateRetried:      {StateSucceeded, StateFailed, StateUnauthorized},
}

// Attempt tracks one outgoing request through the refresh-and-retry cycle:
//
//	Pending → Unauthorized → Refreshing → Retried → Succeeded | Failed
//
// An attempt that has been retried can never enter Refreshing again.
type Attempt struct {
	state   State
	retried bool
	history []State
}

// NewAttempt returns an attempt in the Pending state.
func NewAttempt() *Attempt {
	return &Attempt{state: StatePending, history: []State{StatePending}}
}

// State returns the current state.
func (a *Attempt) State() State { return a.state }

// Retried reports whether the attempt has already used its one retry.
func (a *Attempt) Retried() bool { return a.retried }

// History returns every state the attempt has been in, in order.
func (a *Attempt) History() []State {
	return append([]State(nil), a.history...)
}

// Done reports whether the attempt reached a terminal state.
func (a *Attempt) Done() bool {
	return a.state == StateSucceeded || a.state == StateFailed
}

// Advance moves the attempt to next, rejecting transitions the machine does
// not allow.
func (a *Attempt) Advance(next State) error {
	if next == StateRefreshing && a.retried {
		return fmt.Errorf("%w: request already retried once", ErrIllegalTransition)
	}
	allowed := false
	for _, s := range transitions[a.state] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s → %s", ErrIllegalTransition, a.state, next)
	}
	if next == StateRefreshing {
		a.retried = true
	}
	a.state = next
	a.history = append(a.history, next)
	return nil
}

func (a *Attempt) String() string {
	parts := make([]string, len(a.history))
	for i, s := range a.history {
		parts[i] = s.String()
	}
	return strings.Join(parts, " → ")
}
