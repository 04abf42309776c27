//go:build linux

package platform

import "testing"

func TestCurrentThreadIDIsPositive(t *testing.T) {
	if id := CurrentThreadID(); id <= 0 {
		t.Fatalf("CurrentThreadID() = %d, want a positive tid", id)
	}
}

func TestNewLinuxReportsAnOrderedRange(t *testing.T) {
	l, err := NewLinux()
	if err != nil {
		t.Skipf("SCHED_FIFO range unavailable in this environment: %v", err)
	}
	if l.Min > l.Max {
		t.Fatalf("priority range inverted: min=%d max=%d", l.Min, l.Max)
	}
}
