package task_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtexec/rtexec/internal/task"
	"github.com/rtexec/rtexec/platform"
	"github.com/rtexec/rtexec/priority"
)

type noopRT struct{}

func (noopRT) SetPriority(th platform.Thread, b priority.Band) error { return nil }
func (noopRT) SetAffinity(th platform.Thread, cpu int) error         { return nil }

func waitForState(t *testing.T, tk *task.Task, want task.State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		tk.Lock()
		got := tk.State()
		tk.Unlock()
		if got == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("task never reached state %v", want)
}

func TestWorkerLifecycle(t *testing.T) {
	var mu sync.Mutex
	ran := make(chan struct{}, 1)

	tk := task.New(0, task.Periodic, func() { ran <- struct{}{} }, 1, &mu)
	log := zap.NewNop().Sugar()

	done := make(chan struct{})
	go func() {
		tk.Run(noopRT{}, log)
		close(done)
	}()

	waitForState(t, tk, task.Idle)

	tk.Lock()
	require.True(t, tk.Admit())
	tk.Unlock()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task function never ran")
	}

	waitForState(t, tk, task.Idle)

	tk.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after Stop")
	}
}

func TestAdmitIsNoopUnlessIdle(t *testing.T) {
	var mu sync.Mutex
	tk := task.New(0, task.Periodic, func() {}, 1, &mu)

	tk.Lock()
	require.True(t, tk.Admit())
	require.False(t, tk.Admit()) // already PENDING, not IDLE
	tk.Unlock()
}

func TestMissRoundTrip(t *testing.T) {
	var mu sync.Mutex
	tk := task.New(0, task.Periodic, func() {}, 1, &mu)

	tk.Lock()
	require.False(t, tk.Miss())
	tk.SetMiss(true)
	require.True(t, tk.Miss())
	tk.SetMiss(false)
	require.False(t, tk.Miss())
	tk.Unlock()
}
