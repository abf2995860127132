package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/memoir/internal/llm"
	"github.com/abhisek/memoir/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect logged LLM requests used for keyword extraction",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM requests logged.")
			return nil
		}

		w := newTable("ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			w.row(e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose, truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, ok)
		}
		return w.flush()
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("LLM request %d not found", id)
		}

		fmt.Printf("Request %d  %s\n", e.ID, e.Timestamp.Local().Format(timeLayout))
		fmt.Printf("  %s / %s, purpose %s\n", e.Provider, e.Model, e.Purpose)
		fmt.Printf("  %d in, %d out, %dms", e.InputTokens, e.OutputTokens, e.LatencyMs)
		if cost := llm.LookupCost(e.Model); cost != nil {
			fmt.Printf(", about %s", formatCost(cost.Cost(e.InputTokens, e.OutputTokens)))
		}
		fmt.Println()
		if !e.Success {
			fmt.Printf("  failed: %s\n", e.ErrorMessage)
		}

		section("Request", e.RequestBody)
		section("Response", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return err
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println("By purpose")
		w := newTable("Purpose", "Calls", "Input", "Output", "Avg ms")
		var total store.LLMUsage
		for _, u := range byPurpose {
			w.row(u.Key, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			total.Calls += u.Calls
			total.InputTokens += u.InputTokens
			total.OutputTokens += u.OutputTokens
		}
		w.row("total", total.Calls, total.InputTokens, total.OutputTokens, "")
		if err := w.flush(); err != nil {
			return err
		}

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println("Estimated cost (USD)")
		w = newTable("Model", "Calls", "Input", "Output", "Cost")
		var (
			sum     float64
			unknown []string
		)
		for _, u := range byModel {
			cost := llm.LookupCost(u.Key)
			if cost == nil {
				unknown = append(unknown, u.Key)
				w.row(truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, "?")
				continue
			}
			c := cost.Cost(u.InputTokens, u.OutputTokens)
			sum += c
			w.row(truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, formatCost(c))
		}
		label := "total"
		if len(unknown) > 0 {
			label = "total (partial)"
		}
		w.row(label, "", "", "", formatCost(sum))
		if err := w.flush(); err != nil {
			return err
		}
		if len(unknown) > 0 {
			fmt.Printf("\nNo pricing for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

const timeLayout = "2006-01-02 15:04:05"

// table is a tab-aligned stdout table with a rule under the header.
type table struct {
	w *tabwriter.Writer
}

func newTable(header ...string) *table {
	t := &table{w: tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)}
	fmt.Fprintln(t.w, strings.Join(header, "\t"))
	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("─", max(len(h), 4))
	}
	fmt.Fprintln(t.w, strings.Join(rule, "\t"))
	return t
}

func (t *table) row(cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

func (t *table) flush() error { return t.w.Flush() }

func section(title, body string) {
	fmt.Println()
	fmt.Println(title)
	fmt.Println(strings.Repeat("─", 60))
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show this purpose (e.g. keywords)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
