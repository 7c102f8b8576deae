package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/crms/internal/guard"
)

// NewRouteCmd creates the "route" subcommand, which reports what the
// route guard would do for a page under the stored session.
func NewRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show where a page resolves for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: runWithEnv(func(cmd *cobra.Command, args []string, e *env) error {
			st := e.manager.Rehydrate()
			d := e.guard.Decide(st, args[0])
			out := cmd.OutOrStdout()
			switch d.Kind {
			case guard.Redirect:
				fmt.Fprintf(out, "redirect %s\n", d.To)
			default:
				fmt.Fprintln(out, d.Kind.String())
			}
			return nil
		}),
	}
}
