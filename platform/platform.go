// Package platform is the thin RT layer the dispatcher and workers go
// through to change OS-level scheduling properties. It brackets the usable
// priority band and reports permission failures distinctly from other
// errors, per the platform contract: its implementation is host-specific,
// only its contract is owned here.
package platform

import (
	"github.com/pkg/errors"

	"github.com/rtexec/rtexec/priority"
)

// PermissionError wraps an RT-layer failure caused by the process lacking
// the capability to change scheduling policy or priority (e.g. missing
// CAP_SYS_NICE). Platform implementations return this, wrapped via
// github.com/pkg/errors, so the originating syscall is never lost.
type PermissionError struct {
	Op  string
	Err error
}

func (e *PermissionError) Error() string {
	return errors.Wrapf(e.Err, "rt platform: %s", e.Op).Error()
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Thread is anything the platform layer can retarget: a worker or the
// dispatcher's own OS thread. Implementations are expected to identify the
// underlying kernel thread id themselves (e.g. via gettid on Linux).
type Thread interface {
	// ThreadID returns the OS-level identifier the platform layer acts on.
	ThreadID() int
}

// RT is the contract consumed by the dispatcher (component D) and the
// worker lifecycle (component B). Calls are assumed quick and
// non-blocking.
type RT interface {
	// SetPriority assigns b, resolved against this platform's usable RT
	// range, to th. Returns a *PermissionError if the OS refuses.
	SetPriority(th Thread, b priority.Band) error

	// SetAffinity pins th to the given CPU index.
	SetAffinity(th Thread, cpu int) error
}
