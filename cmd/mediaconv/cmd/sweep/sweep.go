package sweep

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaconv/cmd/mediaconv/cmd/shared"
)

// Cmd represents the sweep command
var Cmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one janitor pass and exit",
	Long: `Run one janitor pass: delete tool debug residue (player-script dumps)
and work files abandoned by timed-out downloads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := shared.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		r := application.Janitor.Sweep(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "residue: %d, orphans: %d, expired: %d, failures: %d\n",
			r.Residue, r.Orphans, r.Expired, r.Failures)
		return nil
	},
}
