package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/memoir/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a participant's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("user")
		if id == 0 {
			return fmt.Errorf("--user is required")
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		svc, err := newService(cmd.Context(), st)
		if err != nil {
			return err
		}
		stats, err := svc.GetStats(cmd.Context(), id, store.Day(time.Now()))
		if err != nil {
			return fmt.Errorf("stats for participant %d: %w", id, err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		last := "never"
		if !stats.Progress.LastActivityDate.IsZero() {
			last = stats.Progress.LastActivityDate.Format(store.DayLayout)
		}
		fmt.Printf("Participant:      %s (#%d, %s)\n", stats.User.Name, stats.User.ID, stats.User.Status)
		fmt.Printf("Phase:            %s, day %d since diagnosis\n", stats.Phase.Phase.Name, stats.Phase.DaysSinceDiagnosis)
		fmt.Printf("Today:            %d/%d new, %d/%d checks\n",
			stats.Phase.NewToday, stats.Phase.Phase.MaxNewQuestionsPerDay,
			stats.Phase.ChecksToday, stats.Phase.Phase.MaxMemoryChecksPerDay)
		fmt.Printf("Initial answers:  %d\n", stats.Progress.TotalInitialAnswered)
		fmt.Printf("Memory checks:    %d\n", stats.Progress.TotalChecksCompleted)
		fmt.Printf("Questions:        %d answered, %d active, %d archived, %d due for a check\n",
			stats.Answered, stats.Active, stats.Archived, stats.Reusable)
		fmt.Printf("Last activity:    %s\n", last)

		n, _ := cmd.Flags().GetInt("checks")
		if n <= 0 {
			return nil
		}
		checks, err := st.Repo().ListChecks(cmd.Context(), id, n)
		if err != nil {
			return fmt.Errorf("list checks: %w", err)
		}
		if len(checks) == 0 {
			return nil
		}
		fmt.Println()
		fmt.Println("Recent memory checks")
		fmt.Println(strings.Repeat("\u2500", 60))
		for _, c := range checks {
			hint := ""
			if c.HintProvided {
				hint = " (after hint)"
			}
			fmt.Printf("%s  question %-4d  %-4s  %d keywords matched, confidence %s%s\n",
				c.Date.Format(store.DayLayout), c.QuestionID, c.Result, c.KeywordMatchCount, c.Confidence, hint)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int64("user", 0, "Participant ID")
	statsCmd.Flags().Bool("json", false, "Print as JSON")
	statsCmd.Flags().Int("checks", 5, "Number of recent memory checks to list")
}
