package core

import (
	"context"
	"fmt"
	"sync"
)

// GoalState is the lifecycle state of a single goal execution.
// The only legal transitions are requested -> in_process -> success | failure;
// both success and failure are terminal.
type GoalState string

const (
	StateRequested GoalState = "requested"
	StateInProcess GoalState = "in_process"
	StateSuccess   GoalState = "success"
	StateFailure   GoalState = "failure"
)

// Terminal reports whether no further transition is possible from s.
func (s GoalState) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// ExternalURL is a labeled link produced by a goal, e.g. the address of a
// freshly started application instance.
type ExternalURL struct {
	Label string
	URL   string
}

// GoalResult is the immutable outcome of one goal action.
type GoalResult struct {
	State        GoalState
	Code         int
	ExternalURLs []ExternalURL
}

// Succeeded reports whether the result is terminal success.
func (r GoalResult) Succeeded() bool { return r.State == StateSuccess }

// SuccessResult builds a terminal success result with optional external URLs.
func SuccessResult(urls ...ExternalURL) GoalResult {
	return GoalResult{State: StateSuccess, ExternalURLs: urls}
}

// FailureResult builds a terminal failure result with the given code.
func FailureResult(code int) GoalResult {
	return GoalResult{State: StateFailure, Code: code}
}

// GoalContext is what a goal action gets to work with: the push that triggered
// it, the directory holding the checked-out commit, and the goal's progress log.
type GoalContext struct {
	Push *PushEvent
	Dir  string
	Log  *ProgressLog
}

// GoalAction performs the work of a goal and must always return a terminal
// result. Process or network failures are converted into a failure result at
// this boundary; an action never panics past the executor.
type GoalAction func(ctx context.Context, gc *GoalContext) GoalResult

// GoalListener runs before a goal's main action, e.g. a versioning step.
// A listener error fails the goal before the action is attempted.
type GoalListener func(ctx context.Context, gc *GoalContext) error

// Goal is a named unit of pipeline work.
type Goal struct {
	Name   string
	Before GoalListener
	Action GoalAction
}

// GoalSet is an ordered sequence of goals triggered together by one matched
// rule. Order within the set is significant and preserved by the executor.
type GoalSet []Goal

// ProgressLog is the append-only sink associated with one goal execution.
// Goal actions only ever append; readers take an immutable copy of the lines.
type ProgressLog struct {
	mu    sync.Mutex
	lines []string
}

// Append adds a formatted line to the log.
func (l *ProgressLog) Append(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of everything appended so far.
func (l *ProgressLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Notifier delivers a rendered success notification for a goal, including the
// short commit identifier and any external URLs the goal produced.
type Notifier interface {
	Notify(ctx context.Context, push *PushEvent, message string, urls []ExternalURL) error
}

// StatusSink publishes goal state transitions to an external system, e.g. as
// GitHub commit statuses. Implementations must tolerate terminal results for
// goals they never saw enter in_process.
type StatusSink interface {
	InProcess(ctx context.Context, push *PushEvent, goalName string) error
	Terminal(ctx context.Context, push *PushEvent, goalName string, result GoalResult) error
}
