package rtexec

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rtexec/rtexec/internal/schedule"
	"github.com/rtexec/rtexec/internal/task"
	"github.com/rtexec/rtexec/platform"
	"github.com/rtexec/rtexec/priority"
)

// Executive is the cyclic-executive scheduler: the configuration API plus
// the dispatcher it hands off to on Run.
//
// Frames, slack, wcet, and the task function bindings are read-only from
// the moment Run begins; the only mutable cross-thread state after that
// point is each task's state/miss pair and the aperiodic-request flag,
// both guarded by dedicated mutexes that are never held simultaneously.
type Executive struct {
	numTasks     int
	frameLength  int
	unitDuration time.Duration

	stateMu   sync.Mutex
	periodic  []*task.Task
	wcet      []uint // mirrors periodic[i].WCET, valid even before SetPeriodicTask(i, ...)
	aperiodic *task.Task

	sched *schedule.Schedule

	apRequestMu sync.Mutex
	apRequest   bool

	rt       platform.RT
	cpu      int
	log      *zap.SugaredLogger
	cancel   context.CancelFunc
	cancelMu sync.Mutex

	threadID int // the dispatcher's own OS thread id, set once in Run
}

// ThreadID returns the OS thread id the dispatcher itself registered,
// implementing platform.Thread so the dispatcher can pin its own priority
// and affinity the same way it pins a worker's.
func (e *Executive) ThreadID() int { return e.threadID }

// Option configures an Executive at construction time.
type Option func(*Executive)

// WithLogger overrides the default production zap logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Executive) { e.log = log }
}

// WithPlatform overrides the RT platform layer (default: the host's
// platform.RT implementation chosen at build time via platform.New()).
func WithPlatform(rt platform.RT) Option {
	return func(e *Executive) { e.rt = rt }
}

// WithCPU selects which CPU every worker and the dispatcher are pinned
// to. Defaults to CPU 0.
func WithCPU(cpu int) Option {
	return func(e *Executive) { e.cpu = cpu }
}

// New allocates numTasks empty periodic task slots. unitDurationMS
// defaults to 10ms when 0.
func New(numTasks int, frameLength int, unitDurationMS int, opts ...Option) *Executive {
	if unitDurationMS == 0 {
		unitDurationMS = 10
	}
	e := &Executive{
		numTasks:     numTasks,
		frameLength:  frameLength,
		unitDuration: time.Duration(unitDurationMS) * time.Millisecond,
		periodic:     make([]*task.Task, numTasks),
		wcet:         make([]uint, numTasks),
		sched:        schedule.New(frameLength, unitDurationMS),
		cpu:          0,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		e.log = l.Sugar()
	}
	if e.rt == nil {
		rt, err := platform.New()
		if err != nil {
			e.log.Warnw("rt platform unavailable, falling back to a permission-denying stub", "error", err)
		}
		e.rt = rt
	}
	return e
}

// SetPeriodicTask records the binding for periodic task taskID. Registering
// the same id twice overwrites the prior binding (last-wins).
func (e *Executive) SetPeriodicTask(taskID int, fn func(), wcet uint) {
	if taskID < 0 || taskID >= e.numTasks {
		panic(fmt.Sprintf("rtexec: task id %d out of range [0, %d)", taskID, e.numTasks))
	}
	e.periodic[taskID] = task.New(taskID, task.Periodic, fn, wcet, &e.stateMu)
	e.wcet[taskID] = wcet
}

// SetAperiodicTask records the singleton aperiodic binding.
func (e *Executive) SetAperiodicTask(fn func(), wcet uint) {
	e.aperiodic = task.New(-1, task.Aperiodic, fn, wcet, &e.stateMu)
}

// AddFrame appends a frame of periodic task ids, in execution order, and
// caches its slack. Every id must already be bound via SetPeriodicTask;
// a bad id or a frame whose total wcet exceeds the frame length is a
// configuration error and panics before any thread starts.
func (e *Executive) AddFrame(ids []int) {
	for _, id := range ids {
		if id < 0 || id >= e.numTasks {
			panic(fmt.Sprintf("rtexec: frame references out-of-range task id %d", id))
		}
	}
	_, err := e.sched.AddFrame(ids, func(id int) uint { return e.wcet[id] })
	if err != nil {
		panic(err.Error())
	}
}

// APTaskRequest is the thread-safe, reentrant flag raise a task body (or
// any external caller) uses to request the aperiodic job. Any number of
// calls between two frame ticks collapse into one release.
func (e *Executive) APTaskRequest() {
	e.apRequestMu.Lock()
	e.apRequest = true
	e.apRequestMu.Unlock()
}

// Run starts every worker and the dispatcher, and blocks until ctx is
// canceled or Stop is called, via a cooperative stop check polled once per
// frame at the point the dispatcher already holds no locks, so timing
// semantics within a frame are unaffected.
func (e *Executive) Run(ctx context.Context) error {
	for i, t := range e.periodic {
		if t == nil {
			panic(fmt.Sprintf("rtexec: periodic task %d was never configured via SetPeriodicTask", i))
		}
	}
	if e.aperiodic == nil {
		panic("rtexec: aperiodic task was never configured via SetAperiodicTask")
	}
	if e.sched.NumFrames() == 0 {
		panic("rtexec: no frames configured via AddFrame")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	e.threadID = platform.CurrentThreadID()

	ctx, cancel := context.WithCancel(ctx)
	e.cancelMu.Lock()
	e.cancel = cancel
	e.cancelMu.Unlock()
	defer cancel()

	var wg sync.WaitGroup
	for _, t := range e.periodic {
		wg.Add(1)
		go func(t *task.Task) {
			defer wg.Done()
			t.Run(e.rt, e.log)
		}(t)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.aperiodic.Run(e.rt, e.log)
	}()

	e.setPriority(e.aperiodic, priority.Min())
	if err := e.rt.SetAffinity(e.aperiodic, e.cpu); err != nil {
		e.log.Warnw("failed to pin aperiodic worker", "error", err)
	}

	// The dispatcher runs at the top RT band, pinned to the same CPU as
	// every worker: it is itself one more OS thread the platform layer
	// retargets, not a privileged goroutine.
	e.setPriority(e, priority.Max())
	if err := e.rt.SetAffinity(e, e.cpu); err != nil {
		e.log.Warnw("failed to pin dispatcher", "error", err)
	}

	e.dispatch(ctx)

	for _, t := range e.periodic {
		t.Stop()
	}
	e.aperiodic.Stop()
	wg.Wait()

	// A canceled or expired context is the intended stop signal (either
	// Stop() was called, or the caller's own deadline fired); Run reports
	// that as a normal return, not an error.
	return nil
}

// Stop requests cooperative shutdown of a running Executive. Safe to call
// from any goroutine, including from inside a task body.
func (e *Executive) Stop() {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// setPriority assigns b to th, demoting a task worker to a detached,
// unmanaged thread on permission failure rather than aborting the run. The
// dispatcher's own thread goes through the same call but has no worker to
// detach, so it just logs the failure.
func (e *Executive) setPriority(th platform.Thread, b priority.Band) {
	if err := e.rt.SetPriority(th, b); err != nil {
		var perr *platform.PermissionError
		if errors.As(err, &perr) {
			if t, ok := th.(*task.Task); ok {
				t.MarkDetached()
				e.log.Errorw("permission denied setting priority; detaching worker",
					"task_id", t.ID, "kind", t.Kind.String(), "band", b.String(), "error", err)
				return
			}
			e.log.Errorw("permission denied setting dispatcher priority", "band", b.String(), "error", err)
			return
		}
		e.log.Warnw("failed to set priority", "band", b.String(), "error", err)
	}
}

// dispatch is the dispatcher's per-frame control loop: absorb any pending
// aperiodic request, admit this frame's periodic tasks in descending
// priority bands, steal slack for the aperiodic job if one is running,
// sleep out the rest of the frame, then quarantine any task still running
// past its deadline before advancing to the next frame.
func (e *Executive) dispatch(ctx context.Context) {
	frameID := 0
	apRunning := false
	nextFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()
		frame := e.sched.Frame(frameID)

		// Absorb pending aperiodic request.
		apRunning = e.absorbAPRequest(apRunning, frameID)

		// Admit this frame's periodic tasks.
		e.stateMu.Lock()
		prio := priority.Max().Minus(3)
		for _, id := range frame.TaskIDs {
			t := e.periodic[id]
			if t.State() == task.Idle {
				e.setPriority(t, prio)
				if err := e.rt.SetAffinity(t, e.cpu); err != nil {
					e.log.Warnw("failed to pin periodic task", "task_id", id, "error", err)
				}
				prio = prio.Minus(1)
				t.Admit()
				e.log.Debugw("task admitted", "task_id", id, "frame_id", frameID)
			}
		}
		e.stateMu.Unlock()

		// Aperiodic activation and sleeping.
		if apRunning {
			nextFrame = e.sleepSlackWindow(ctx, frameID, frame.Slack, nextFrame)
		} else {
			e.log.Debugw("sleeping for frame time", "frame_id", frameID)
			nextFrame = nextFrame.Add(time.Duration(e.frameLength) * e.unitDuration)
		}
		sleepUntil(ctx, nextFrame)

		// End-of-frame miss detection.
		apRunning = e.detectMisses(frame, frameID, apRunning)

		e.log.Debugw("frame complete", "frame_id", frameID,
			"elapsed", time.Since(frameStart), "target", time.Duration(e.frameLength)*e.unitDuration)

		// Advance.
		frameID = (frameID + 1) % e.sched.NumFrames()
	}
}

// absorbAPRequest picks up an aperiodic request raised since the last tick,
// tagging it with a fresh correlation id the aperiodic worker's own
// running/idle log lines will carry once it is admitted. A request that
// arrives while the previous job is still running is reported as a miss
// rather than silently dropped or queued.
func (e *Executive) absorbAPRequest(apRunning bool, frameID int) bool {
	e.apRequestMu.Lock()
	requested := e.apRequest
	e.apRequest = false
	e.apRequestMu.Unlock()

	if !requested {
		return apRunning
	}
	if apRunning {
		e.log.Warnw("aperiodic deadline miss: new request while previous job still running", "frame_id", frameID)
		return apRunning
	}

	e.stateMu.Lock()
	e.aperiodic.SetCorrelationID(uuid.New().String())
	e.stateMu.Unlock()
	return true
}

// sleepSlackWindow raises miss-flagged periodic tasks and the aperiodic
// worker into the slack-stealing bands, releases the aperiodic job if it is
// idle, sleeps for the frame's precomputed slack, then demotes everything
// back to the background bands for the remainder of the frame. A frame
// whose slack is 0 skips the sleep itself but still performs the priority
// raise/demote around it.
func (e *Executive) sleepSlackWindow(ctx context.Context, frameID, slack int, nextFrame time.Time) time.Time {
	missPrio := priority.Max().Minus(1)
	apPrio := priority.Max().Minus(2)

	e.stateMu.Lock()
	for _, t := range e.periodic {
		if t.Miss() {
			e.setPriority(t, missPrio)
		}
	}
	e.setPriority(e.aperiodic, apPrio)
	if e.aperiodic.State() == task.Idle {
		e.aperiodic.Admit()
		e.log.Debugw("aperiodic admitted during slack", "frame_id", frameID, "request_id", e.aperiodic.CorrelationID())
	}
	e.stateMu.Unlock()

	if slack > 0 {
		slackStart := time.Now()
		nextFrame = nextFrame.Add(time.Duration(slack) * e.unitDuration)
		sleepUntil(ctx, nextFrame)
		e.log.Debugw("slack window elapsed", "frame_id", frameID, "slack_units", slack, "elapsed", time.Since(slackStart))
	}

	e.stateMu.Lock()
	e.setPriority(e.aperiodic, priority.Min())
	demotedMiss := priority.Min().Plus(1)
	for _, t := range e.periodic {
		if t.Miss() {
			e.setPriority(t, demotedMiss)
		}
	}
	e.stateMu.Unlock()

	return nextFrame.Add(time.Duration(e.frameLength-slack) * e.unitDuration)
}

// detectMisses runs at the end of a frame: any task still non-IDLE at this
// point has overrun its wcet and is quarantined (miss=true, demoted to the
// background band); a task that was quarantined but has since caught up to
// IDLE has its miss cleared; the aperiodic job is considered finished once
// it reaches IDLE.
func (e *Executive) detectMisses(frame schedule.Frame, frameID int, apRunning bool) bool {
	demotedMiss := priority.Min().Plus(1)

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	for _, t := range e.periodic {
		if t.Miss() && t.State() == task.Idle {
			t.SetMiss(false)
		}
	}

	if apRunning && e.aperiodic.State() == task.Idle {
		apRunning = false
	}

	for _, id := range frame.TaskIDs {
		t := e.periodic[id]
		if t.State() != task.Idle {
			t.SetMiss(true)
			e.setPriority(t, demotedMiss)
			e.log.Warnw("periodic deadline miss", "task_id", id, "frame_id", frameID, "state", t.State().String())
		}
	}

	return apRunning
}

// sleepUntil sleeps until target, or returns early if ctx is canceled.
// target is always computed once against a fixed base time, never
// recomputed from a fresh "now", so cumulative drift across frames cannot
// accumulate.
func sleepUntil(ctx context.Context, target time.Time) {
	d := time.Until(target)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
