package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtexec/rtexec/scheduleconfig"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schedule.yaml>",
		Short: "Check a schedule file and print each frame's computed slack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scheduleconfig.Load(args[0])
			if err != nil {
				return err
			}
			for i := range s.Frames {
				fmt.Printf("frame %d: tasks=%v slack=%d units\n", i, s.Frames[i], s.Slack(i))
			}
			return nil
		},
	}
}
