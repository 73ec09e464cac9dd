package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/output"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Drain the outbox to the progress mirror now",
	GroupID: "sync",
	Long: `Probes the server and, if reachable, delivers every pending queue
item in order. Items the server refuses stay queued for the next pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		jsonOut, _ := cmd.Flags().GetBool("json")

		if a.cfg.ServerURL == "" {
			err := fmt.Errorf("no server configured; run 'lx init' with --server or edit .lx/config.json")
			if jsonOut {
				output.JSONError(output.ErrCodeSyncError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		before := a.manager.Status().PendingCount

		if !a.probeOnline() {
			err := fmt.Errorf("server unreachable; %d item(s) remain queued", before)
			if jsonOut {
				output.JSONError(output.ErrCodeSyncError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		// probeOnline kicked off the drain; wait for it to finish
		a.manager.Wait()

		status := a.manager.Status()
		if jsonOut {
			return output.JSON(status)
		}

		delivered := before - status.PendingCount
		if delivered > 0 {
			output.Success("Delivered %d item(s)", delivered)
		}
		if status.PendingCount > 0 {
			output.Warning("%d item(s) still pending", status.PendingCount)
		} else if delivered == 0 {
			fmt.Println("Nothing to sync")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("json", false, "Output as JSON")
}
