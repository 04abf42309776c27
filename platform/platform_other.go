//go:build !linux

package platform

import "os"

// New returns the host platform's RT implementation. Non-Linux hosts get
// Stub: real-time scheduling primitives here are Linux-specific.
func New() (RT, error) { return NewStub(), nil }

// CurrentThreadID has no portable equivalent outside Linux; the process
// id is returned as a stable, non-zero placeholder.
func CurrentThreadID() int { return os.Getpid() }
