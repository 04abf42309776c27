package platform

import (
	"errors"
	"testing"

	"github.com/rtexec/rtexec/priority"
)

type fakeThread struct{ id int }

func (f fakeThread) ThreadID() int { return f.id }

func TestStubAlwaysReportsPermissionError(t *testing.T) {
	s := NewStub()

	err := s.SetPriority(fakeThread{1}, priority.Max())
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("SetPriority error is not a *PermissionError: %v", err)
	}

	err = s.SetAffinity(fakeThread{1}, 0)
	if !errors.As(err, &perr) {
		t.Fatalf("SetAffinity error is not a *PermissionError: %v", err)
	}
}

func TestPermissionErrorUnwraps(t *testing.T) {
	inner := errors.New("eperm")
	pe := &PermissionError{Op: "SetPriority", Err: inner}

	if !errors.Is(pe, inner) {
		t.Fatalf("errors.Is did not find the wrapped cause")
	}
}
