package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/output"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show connectivity and outbox state",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		noProbe, _ := cmd.Flags().GetBool("no-probe")
		if !noProbe {
			a.probeOnline()
			a.manager.Wait()
		}

		status := a.manager.Status()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(status)
		}
		fmt.Println(output.FormatSyncStatus(status))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("json", false, "Output as JSON")
	statusCmd.Flags().Bool("no-probe", false, "Report stored state without probing the server")
}
