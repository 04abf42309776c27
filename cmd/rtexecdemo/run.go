package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtexec/rtexec"
	"github.com/rtexec/rtexec/scheduleconfig"
)

func newRunCmd() *cobra.Command {
	var frames int

	cmd := &cobra.Command{
		Use:   "run <schedule.yaml>",
		Short: "Run a schedule for a fixed number of major cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scheduleconfig.Load(args[0])
			if err != nil {
				return err
			}
			return runDemo(s, frames)
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 3, "number of major cycles to run before stopping")
	return cmd
}

// runDemo wires a declaratively-loaded Schedule into an Executive with
// trivial sleep-based task bodies, and requests the aperiodic job from
// inside one periodic task every third release (the same shape the
// original C++ demo used: a periodic task body calling
// Executive::ap_task_request() on a modulo counter). The closure captures
// only exec.APTaskRequest, a bound method value, a borrow of the
// aperiodic-request endpoint rather than a back-pointer to the whole
// scheduler.
func runDemo(s *scheduleconfig.Schedule, majorCycles int) error {
	exec := rtexec.New(len(s.Tasks), s.FrameLength, s.UnitDurationMS)

	releaseCount := 0
	for _, t := range s.Tasks {
		t := t
		requestAperiodic := exec.APTaskRequest
		exec.SetPeriodicTask(t.ID, func() {
			time.Sleep(time.Duration(t.WCET) * time.Duration(s.UnitDurationMS) * time.Millisecond)
			if t.ID == 0 {
				releaseCount++
				if releaseCount%3 == 0 {
					requestAperiodic()
				}
			}
		}, t.WCET)
	}
	exec.SetAperiodicTask(func() {
		time.Sleep(time.Duration(s.Aperiodic.WCET) * time.Duration(s.UnitDurationMS) * time.Millisecond)
	}, s.Aperiodic.WCET)

	for _, frame := range s.Frames {
		exec.AddFrame(frame)
	}

	majorCycleDuration := time.Duration(s.FrameLength) * time.Duration(s.UnitDurationMS) * time.Millisecond * time.Duration(len(s.Frames))
	ctx, cancel := context.WithTimeout(context.Background(), majorCycleDuration*time.Duration(majorCycles))
	defer cancel()

	fmt.Printf("running %d major cycle(s) of %d frame(s) each\n", majorCycles, len(s.Frames))
	return exec.Run(ctx)
}
