//go:build linux

package platform

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/rtexec/rtexec/priority"
)

var _ RT = (*Linux)(nil)

// Linux implements RT using SCHED_FIFO and CPU affinity masks, the pairing
// the corpus's own affinity-pinning code (ehrlich-b/go-ublk's queue
// runner, aktau/perflock) reaches for via golang.org/x/sys/unix.
type Linux struct {
	// Min and Max bracket the usable SCHED_FIFO priority range, typically
	// unix.SchedGetPriorityMin/Max(unix.SCHED_FIFO).
	Min, Max int
}

// New returns the host platform's RT implementation: Linux's SCHED_FIFO
// backend, or Stub if the kernel range query itself fails (e.g. a
// sandboxed environment that denies even read-only scheduler queries).
func New() (RT, error) {
	l, err := NewLinux()
	if err != nil {
		return NewStub(), err
	}
	return l, nil
}

// NewLinux queries the kernel for the usable SCHED_FIFO priority range.
func NewLinux() (*Linux, error) {
	min, err := unix.SchedGetPriorityMin(unix.SCHED_FIFO)
	if err != nil {
		return nil, errors.Wrap(err, "rt platform: query SCHED_FIFO priority floor")
	}
	max, err := unix.SchedGetPriorityMax(unix.SCHED_FIFO)
	if err != nil {
		return nil, errors.Wrap(err, "rt platform: query SCHED_FIFO priority ceiling")
	}
	return &Linux{Min: min, Max: max}, nil
}

func (l *Linux) SetPriority(th Thread, b priority.Band) error {
	prio := b.Resolve(l.Min, l.Max)
	param := &unix.SchedParam{Priority: int32(prio)}
	if err := unix.SchedSetscheduler(th.ThreadID(), unix.SCHED_FIFO, param); err != nil {
		if errors.Is(err, unix.EPERM) {
			return &PermissionError{Op: "SchedSetscheduler", Err: err}
		}
		return errors.Wrap(err, "rt platform: set priority")
	}
	return nil
}

func (l *Linux) SetAffinity(th Thread, cpu int) error {
	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(th.ThreadID(), &mask); err != nil {
		if errors.Is(err, unix.EPERM) {
			return &PermissionError{Op: "SchedSetaffinity", Err: err}
		}
		return errors.Wrap(err, "rt platform: set affinity")
	}
	return nil
}

// CurrentThreadID returns the calling OS thread's id. The caller must
// already hold runtime.LockOSThread for this to remain valid.
func CurrentThreadID() int { return unix.Gettid() }
