package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/config"
	"github.com/hartley/lx/internal/output"
	"github.com/hartley/lx/internal/store"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize a new lx project",
	Long:    `Creates the local .lx directory and SQLite database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		// Check if already initialized
		if _, err := os.Stat(filepath.Join(baseDir, ".lx")); err == nil {
			output.Warning(".lx/ already exists")
			return nil
		}

		name, _ := cmd.Flags().GetString("name")
		serverURL, _ := cmd.Flags().GetString("server")
		apiKey, _ := cmd.Flags().GetString("api-key")

		if name == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("Display name").
					Value(&name).
					Placeholder("shown on leaderboards").
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("display name is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Server URL").
					Value(&serverURL).
					Placeholder("optional, e.g. https://progress.example.com"),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			output.Error("display name is required")
			return fmt.Errorf("display name is required")
		}

		st, err := store.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer st.Close()

		fmt.Println("INITIALIZED .lx/")

		if err := config.SetDisplayName(baseDir, name); err != nil {
			output.Error("failed to save config: %v", err)
			return err
		}
		if serverURL != "" {
			if err := config.SetServer(baseDir, serverURL, apiKey); err != nil {
				output.Error("failed to save config: %v", err)
				return err
			}
		}

		deviceID, err := config.EnsureDeviceID(baseDir)
		if err != nil {
			output.Error("failed to assign device id: %v", err)
			return err
		}
		fmt.Printf("Device: %s\n", deviceID)

		if _, err := os.Stat(filepath.Join(baseDir, ".git")); err == nil {
			addToGitignore(filepath.Join(baseDir, ".gitignore"))
		}

		return nil
	},
}

func addToGitignore(path string) {
	content, _ := os.ReadFile(path)
	contentStr := string(content)

	if strings.Contains(contentStr, ".lx/") {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(contentStr) > 0 && !strings.HasSuffix(contentStr, "\n") {
		f.WriteString("\n")
	}

	f.WriteString(".lx/\n")
	fmt.Println("Added .lx/ to .gitignore")
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("name", "", "Display name (skips the prompt)")
	initCmd.Flags().String("server", "", "Progress mirror server URL")
	initCmd.Flags().String("api-key", "", "API key for the progress mirror")
}
