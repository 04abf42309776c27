package platform

import (
	"github.com/pkg/errors"

	"github.com/rtexec/rtexec/priority"
)

var _ RT = (*Stub)(nil)

// Stub reports every priority/affinity change as refused. It backs
// non-Linux builds, where the OS scheduling primitives this package wraps
// have no implementation, and is also the fallback when the Linux
// implementation itself fails to even query the usable SCHED_FIFO range.
// A scheduler that cannot get real priorities should say so explicitly
// rather than silently no-op.
type Stub struct{}

// NewStub returns a platform.RT whose calls always report a permission
// error, as if every priority/affinity change were refused by the OS.
func NewStub() *Stub { return &Stub{} }

func (s *Stub) SetPriority(th Thread, b priority.Band) error {
	return &PermissionError{Op: "SetPriority", Err: errors.New("rt scheduling unavailable")}
}

func (s *Stub) SetAffinity(th Thread, cpu int) error {
	return &PermissionError{Op: "SetAffinity", Err: errors.New("cpu affinity unavailable")}
}
