package build

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
	"github.com/santiiagoleandro-ops/site-financas-llama/internal/observability"
)

// State is a phase of the build lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateCleaning   State = "cleaning"
	StatePopulating State = "populating"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var allowedTransitions = map[State][]State{
	StateIdle:       {StateCleaning, StateFailed},
	StateCleaning:   {StatePopulating, StateFailed},
	StatePopulating: {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition records one state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// lifecycle tracks the current state and its history.
type lifecycle struct {
	state   State
	history []Transition
	now     func() time.Time
}

func newLifecycle(now func() time.Time) *lifecycle {
	return &lifecycle{state: StateIdle, now: now}
}

// to moves to next, rejecting transitions the lifecycle does not allow.
func (l *lifecycle) to(ctx context.Context, next State) error {
	if !slices.Contains(allowedTransitions[l.state], next) {
		return fmt.Errorf("invalid build state transition %s -> %s", l.state, next)
	}
	t := Transition{From: l.state, To: next, At: l.now()}
	l.history = append(l.history, t)
	l.state = next
	observability.InfoContext(ctx, "Build state changed",
		slog.String("from", string(t.From)),
		logfields.State(string(next)))
	return nil
}

// fail moves to StateFailed unless the lifecycle already ended.
func (l *lifecycle) fail(ctx context.Context) {
	if l.state.Terminal() {
		return
	}
	_ = l.to(ctx, StateFailed)
}
