package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/output"
)

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"ach"},
	Short:   "List unlocked achievements",
	GroupID: "progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		p := a.engine.Profile()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(p.Achievements)
		}

		if len(p.Achievements) == 0 {
			fmt.Println("No achievements unlocked yet")
			return nil
		}
		for _, ach := range p.Achievements {
			fmt.Println(output.FormatAchievement(&ach))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(achievementsCmd)
	achievementsCmd.Flags().Bool("json", false, "Output as JSON")
}
