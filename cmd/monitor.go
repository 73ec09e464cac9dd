package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/outbox"
	"github.com/hartley/lx/internal/output"
	"github.com/hartley/lx/internal/tui/monitor"
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Short:   "Live TUI dashboard for progress and sync state",
	GroupID: "system",
	Long: `Launch a live-updating TUI dashboard showing:
- Progress: level, XP, streak and per-subject stats
- Sync queue: pending outbox items awaiting delivery
- Recent activity: the latest recorded activities

Connectivity is probed continuously; the outbox drains automatically
whenever the server becomes reachable.

Key bindings:
  Tab/Shift+Tab  Switch panels
  1/2/3          Jump to panel
  j/k            Scroll viewport
  s              Trigger a sync drain
  r              Force refresh
  ?              Toggle help
  q              Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < 500*time.Millisecond {
			interval = 2 * time.Second
		}
		probeEvery, _ := cmd.Flags().GetDuration("probe")
		if probeEvery < time.Second {
			probeEvery = 10 * time.Second
		}

		if a.cfg.ServerURL != "" {
			src := outbox.NewPollingSource(func() bool {
				_, err := a.client.HealthCheck()
				return err == nil
			}, probeEvery)
			defer src.Close()
			a.manager.Bind(src)
		}

		model := monitor.NewModel(a.store, a.manager, interval)
		model.Version = version

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running monitor: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Duration("interval", 2*time.Second, "Refresh interval")
	monitorCmd.Flags().Duration("probe", 10*time.Second, "Connectivity probe interval")
}
