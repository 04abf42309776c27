// Package scheduleconfig loads a declarative schedule description (frame
// length, unit duration, per-task wcets, and frame contents) from a YAML
// file via viper, the config idiom several schedulers in the retrieved
// corpus reach for (nomad, gcsfuse, jackzampolin/shelf all carry
// spf13/viper). It produces a pure data object; callers wire it into an
// rtexec.Executive themselves by supplying the actual task functions,
// since the schedule description has no way to name Go closures.
package scheduleconfig

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// TaskSpec is one periodic task's declarative configuration.
type TaskSpec struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`
	WCET uint   `mapstructure:"wcet"`
}

// AperiodicSpec is the aperiodic task's declarative configuration.
type AperiodicSpec struct {
	Name string `mapstructure:"name"`
	WCET uint   `mapstructure:"wcet"`
}

// Schedule is the declarative form of an rtexec major cycle.
type Schedule struct {
	FrameLength    int             `mapstructure:"frame_length"`
	UnitDurationMS int             `mapstructure:"unit_duration_ms"`
	Tasks          []TaskSpec      `mapstructure:"tasks"`
	Aperiodic      AperiodicSpec   `mapstructure:"aperiodic"`
	Frames         [][]int         `mapstructure:"frames"`
}

// BusyWait is the signature of the load-generating function a caller may
// plug into a demo task body. No implementation ships with this module;
// the busy-wait utility is an external collaborator, referenced only by
// interface.
type BusyWait func(units int)

// Load reads and validates a schedule from path (YAML). It does not
// construct an rtexec.Executive: that requires real task closures this
// package has no way to express.
func Load(path string) (*Schedule, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "scheduleconfig: reading %s", path)
	}

	var s Schedule
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "scheduleconfig: decoding schedule")
	}
	if s.UnitDurationMS == 0 {
		s.UnitDurationMS = 10
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the static well-formedness of the schedule: task ids
// are contiguous from 0, every frame references a defined id, and every
// frame's total wcet does not exceed the frame length, the same
// schedulability precondition rtexec.AddFrame enforces at configuration
// time. Checking it here lets a CLI reject a bad file before any task
// closures are even built.
func (s *Schedule) Validate() error {
	if s.FrameLength <= 0 {
		return fmt.Errorf("scheduleconfig: frame_length must be positive, got %d", s.FrameLength)
	}
	wcet := make(map[int]uint, len(s.Tasks))
	for _, t := range s.Tasks {
		if _, dup := wcet[t.ID]; dup {
			return fmt.Errorf("scheduleconfig: duplicate task id %d", t.ID)
		}
		if t.ID < 0 || t.ID >= len(s.Tasks) {
			return fmt.Errorf("scheduleconfig: task id %d out of range [0, %d)", t.ID, len(s.Tasks))
		}
		wcet[t.ID] = t.WCET
	}
	for fi, frame := range s.Frames {
		total := uint(0)
		for _, id := range frame {
			w, ok := wcet[id]
			if !ok {
				return fmt.Errorf("scheduleconfig: frame %d references undefined task id %d", fi, id)
			}
			total += w
		}
		if int(total) > s.FrameLength {
			return fmt.Errorf("scheduleconfig: frame %d total wcet %d exceeds frame_length %d (negative slack)",
				fi, total, s.FrameLength)
		}
	}
	return nil
}

// Slack returns the precomputed slack for frame index fi, recomputing it
// the same way rtexec's schedule model does (frame_length minus the sum
// of the frame's task wcets).
func (s *Schedule) Slack(fi int) int {
	wcet := make(map[int]uint, len(s.Tasks))
	for _, t := range s.Tasks {
		wcet[t.ID] = t.WCET
	}
	total := uint(0)
	for _, id := range s.Frames[fi] {
		total += wcet[id]
	}
	return s.FrameLength - int(total)
}
