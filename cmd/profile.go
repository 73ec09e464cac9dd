package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/output"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Show the local progress profile",
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
			return output.JSON(p)
		}
		fmt.Print(output.FormatProfile(p))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().Bool("json", false, "Output as JSON")
}
