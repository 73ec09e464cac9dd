package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/output"
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Rank the local profile against the peer cohort",
	GroupID: "progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()
		scopeStr, _ := cmd.Flags().GetString("scope")
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOut, _ := cmd.Flags().GetBool("json")

		scope := models.LeaderboardScope(scopeStr)
		if !models.IsValidScope(scope) {
			err := fmt.Errorf("invalid scope %q (want all-time, weekly or monthly)", scopeStr)
			output.Error("%v", err)
			return err
		}

		a, err := openApp(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		entries, err := a.engine.Leaderboard(scope, limit, a.peerProvider(baseDir))
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut {
			return output.JSON(entries)
		}
		fmt.Print(output.FormatLeaderboard(entries, scope))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.Flags().String("scope", "all-time", "Scope window: all-time, weekly, monthly")
	leaderboardCmd.Flags().Int("limit", 10, "Max entries to show")
	leaderboardCmd.Flags().Bool("json", false, "Output as JSON")
}
