package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hartley/lx/internal/dateparse"
	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/output"
)

var recordCmd = &cobra.Command{
	Use:     "record",
	Short:   "Record a completed learning activity",
	GroupID: "progress",
	Long: `Records one completed activity: awards XP, advances the streak,
updates subject stats and achievements, and queues the result for
remote sync. Works fully offline; queued items sync later.`,
	Example: `  lx record --subject math --score 85 --units 10 --correct 8 --elapsed 240 --difficulty mid
  lx record --subject physics --score 100 --units 5 --correct 5 --elapsed 150 --difficulty high --outcomes results.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()
		jsonOut, _ := cmd.Flags().GetBool("json")

		rec, err := recordFromFlags(cmd)
		if err != nil {
			if jsonOut {
				output.JSONError(output.ErrCodeInvalidInput, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		a, err := openApp(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.close()

		result, err := a.engine.RecordActivity(rec)
		if err != nil {
			if jsonOut {
				output.JSONError(output.ErrCodeDatabaseError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if jsonOut {
			output.JSON(result)
		} else if result.Duplicate {
			output.Warning("activity %s was already recorded; nothing changed", rec.ActivityID)
		} else {
			output.Success("+%d XP  (total %d, level %d)", result.XPGained, result.NewTotalXP, result.NewLevel)
			for _, ach := range result.Unlocked {
				output.Info("Unlocked: %s — %s", ach.Name, ach.Description)
			}
		}

		if !result.Duplicate {
			a.autoSyncAfterRecord(baseDir)
		}
		return nil
	},
}

// recordFromFlags assembles and validates the activity record
func recordFromFlags(cmd *cobra.Command) (*models.ActivityRecord, error) {
	subject, _ := cmd.Flags().GetString("subject")
	topic, _ := cmd.Flags().GetString("topic")
	activityID, _ := cmd.Flags().GetString("activity-id")
	score, _ := cmd.Flags().GetInt("score")
	units, _ := cmd.Flags().GetInt("units")
	correct, _ := cmd.Flags().GetInt("correct")
	elapsed, _ := cmd.Flags().GetInt("elapsed")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	outcomesFile, _ := cmd.Flags().GetString("outcomes")
	completed, _ := cmd.Flags().GetString("completed")

	if activityID == "" {
		activityID = fmt.Sprintf("%s-%d", subject, time.Now().UnixNano())
	}

	completedAt := time.Now().UTC()
	if completed != "" {
		var err error
		completedAt, err = dateparse.ParseCompleted(completed)
		if err != nil {
			return nil, err
		}
	}

	rec := &models.ActivityRecord{
		ActivityID:     activityID,
		Subject:        subject,
		Topic:          topic,
		RawScore:       score,
		TotalUnits:     units,
		CorrectUnits:   correct,
		ElapsedSeconds: elapsed,
		Difficulty:     models.DifficultyTier(difficulty),
		CompletedAt:    completedAt,
	}

	if outcomesFile != "" {
		data, err := os.ReadFile(outcomesFile)
		if err != nil {
			return nil, fmt.Errorf("read outcomes file: %w", err)
		}
		if err := json.Unmarshal(data, &rec.Outcomes); err != nil {
			return nil, fmt.Errorf("parse outcomes file: %w", err)
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().String("subject", "", "Subject tag (required)")
	recordCmd.Flags().String("topic", "", "Topic tag (defaults to subject)")
	recordCmd.Flags().String("activity-id", "", "Stable activity id (generated if omitted)")
	recordCmd.Flags().Int("score", 0, "Raw score 0-100")
	recordCmd.Flags().Int("units", 0, "Total units in the activity")
	recordCmd.Flags().Int("correct", 0, "Correctly answered units")
	recordCmd.Flags().Int("elapsed", 0, "Elapsed seconds")
	recordCmd.Flags().String("difficulty", "low", "Difficulty tier: low, mid, high")
	recordCmd.Flags().String("outcomes", "", "Path to per-unit outcomes JSON")
	recordCmd.Flags().String("completed", "", "Completion time (RFC 3339, YYYY-MM-DD, yesterday, -2h, -3d)")
	recordCmd.Flags().Bool("json", false, "Output as JSON")

	recordCmd.MarkFlagRequired("subject")
	recordCmd.MarkFlagRequired("units")
}
