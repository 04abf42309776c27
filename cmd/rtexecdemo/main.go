// Command rtexecdemo is a small harness exercising rtexec against a
// declaratively-configured schedule: "validate" checks a schedule file's
// slack without starting anything, "run" builds an Executive from it and
// drives it for a fixed number of major cycles. Task bodies here are trivial
// time.Sleep stand-ins, not the busy-wait load generator; that remains
// an external collaborator, referenced only by interface
// (scheduleconfig.BusyWait).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "rtexecdemo",
		Short: "Exercise a cyclic-executive schedule described in YAML",
	}
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
