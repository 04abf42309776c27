package task

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/rtexec/rtexec/platform"
)

// Run is the worker loop: wait for PENDING, run the task function, return
// to IDLE, repeat until stopped. It locks the calling goroutine to its OS
// thread for the lifetime of the task, exactly once, so a platform.RT can
// later retarget that thread's priority and affinity (the same pattern the
// runner in the corpus's ublk driver uses: LockOSThread, then register the
// tid, before any affinity call).
func (t *Task) Run(rt platform.RT, log *zap.SugaredLogger) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t.setThreadID(platform.CurrentThreadID())

	for {
		t.mu.Lock()
		for t.state != Pending && !t.stopRequested() {
			t.cond.Wait()
		}
		if t.state != Pending && t.stopRequested() {
			t.mu.Unlock()
			return
		}
		t.state = Running
		corrID := t.corrID
		t.mu.Unlock()

		if log != nil {
			log.Debugw("task running", "task_id", t.ID, "kind", t.Kind.String(), "correlation_id", corrID)
		}

		t.Fn()

		t.mu.Lock()
		t.state = Idle
		t.mu.Unlock()

		if log != nil {
			log.Debugw("task idle", "task_id", t.ID, "kind", t.Kind.String(), "correlation_id", corrID)
		}
	}
}
