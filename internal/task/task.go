// Package task holds the task record and worker lifecycle: a long-lived
// loop that waits for PENDING, runs the user function, and returns to
// IDLE. Workers never read the schedule, change their own priority, or
// observe miss; they are pure executors.
package task

import (
	"sync"
	"sync/atomic"
)

// State is a task's position in the IDLE -> PENDING -> RUNNING -> IDLE
// lattice. Only the dispatcher moves a task IDLE -> PENDING; only the
// worker moves PENDING -> RUNNING -> IDLE.
type State int

const (
	Idle State = iota
	Pending
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// Kind distinguishes periodic from aperiodic tasks. It is diagnostic only
// and must never drive control flow.
type Kind int

const (
	Periodic Kind = iota
	Aperiodic
)

func (k Kind) String() string {
	if k == Aperiodic {
		return "aperiodic"
	}
	return "periodic"
}

// Task is one periodic task record, or the singleton aperiodic record.
// ID, Kind, WCET, and Fn are immutable once Run() starts; state and miss
// are guarded by the mutex shared across the whole task table, injected
// by the owner rather than created locally so every task in a run shares
// one lock.
type Task struct {
	ID   int
	Kind Kind
	WCET uint
	Fn   func()

	mu     *sync.Mutex
	cond   *sync.Cond
	state  State
	miss   bool
	corrID string

	threadID atomic.Int32
	detached bool
	stopped  bool
}

// New creates a task record sharing mu as its state mutex. mu must be the
// same mutex for every task and the aperiodic singleton in one Executive.
func New(id int, kind Kind, fn func(), wcet uint, mu *sync.Mutex) *Task {
	return &Task{
		ID:    id,
		Kind:  kind,
		Fn:    fn,
		WCET:  wcet,
		mu:    mu,
		cond:  sync.NewCond(mu),
		state: Idle,
	}
}

// State returns the task's current state. Callers must hold the shared
// state mutex; it is exported for the dispatcher's own locked sections.
func (t *Task) State() State { return t.state }

// Miss reports whether the task is currently quarantined for having
// missed a deadline. Callers must hold the shared state mutex.
func (t *Task) Miss() bool { return t.miss }

// SetMiss is called only by the dispatcher, under the shared state mutex.
func (t *Task) SetMiss(m bool) { t.miss = m }

// Detached reports whether the platform refused to set this task's
// priority: the worker keeps running unmanaged rather than aborting.
func (t *Task) Detached() bool { return t.detached }

// MarkDetached records a permission failure for this task's worker.
func (t *Task) MarkDetached() { t.detached = true }

// CorrelationID returns the id tagged onto the task's most recent
// admission, read by Run so its running/idle log lines can be correlated
// back to the request that triggered them. Callers must hold the shared
// state mutex.
func (t *Task) CorrelationID() string { return t.corrID }

// SetCorrelationID tags the id Run will carry into its next running/idle
// log lines. Callers must hold the shared state mutex.
func (t *Task) SetCorrelationID(id string) { t.corrID = id }

// Admit transitions IDLE -> PENDING and wakes the worker. Must be called
// under the shared state mutex. It is a no-op (and returns false) if the
// task is not currently IDLE, matching the dispatcher's admission rule
// that non-IDLE tasks are skipped.
func (t *Task) Admit() bool {
	if t.state != Idle {
		return false
	}
	t.state = Pending
	t.cond.Signal()
	return true
}

// ThreadID returns the OS thread id the worker registered, implementing
// platform.Thread. Zero until the worker has started. Deliberately lock-free
// (atomic) rather than guarded by the shared state mutex: the dispatcher
// calls platform.RT methods (which read ThreadID) from inside its own
// state-mutex critical section, and the state mutex is not reentrant.
func (t *Task) ThreadID() int {
	return int(t.threadID.Load())
}

func (t *Task) setThreadID(id int) {
	t.threadID.Store(int32(id))
}

// Stop wakes the worker so it can exit its wait loop, for the cooperative
// shutdown the design notes call for. It does not interrupt a task
// function already running; the worker still finishes the current release
// before observing the stop.
func (t *Task) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.cond.Broadcast()
	t.mu.Unlock()
}

func (t *Task) stopRequested() bool { return t.stopped }

// Lock/Unlock expose the shared state mutex to the owner (the dispatcher),
// which must serialize every state/miss read or write across the whole
// task table in one critical section.
func (t *Task) Lock()   { t.mu.Lock() }
func (t *Task) Unlock() { t.mu.Unlock() }
