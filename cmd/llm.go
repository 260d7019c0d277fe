package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pal/internal/llm"
	"github.com/abhisek/pal/internal/report"
	"github.com/abhisek/pal/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM providers and request events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().LLMRequests(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		p := printer(cmd)
		t := &report.Table{Headers: []string{"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK"}}
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			t.AddRow(
				strconv.FormatInt(e.Sequence, 10),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				report.Mark(e.Success),
			)
		}
		if len(t.Rows) == 0 {
			p.Println("No LLM events found.")
			return nil
		}
		p.Println(t.Render())
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().LLMRequest(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		p := printer(cmd)
		sep := report.Subtitle.Render(strings.Repeat("─", 60))
		field := func(name, value string) {
			p.Println(report.Label.Render(fmt.Sprintf("%-10s", name)) + value)
		}
		field("ID:", strconv.FormatInt(e.Sequence, 10))
		field("Time:", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		field("Provider:", e.Provider)
		field("Model:", e.Model)
		field("Purpose:", e.Purpose)
		field("Tokens:", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
		field("Latency:", fmt.Sprintf("%dms", e.LatencyMs))
		field("Success:", report.Mark(e.Success))
		if e.ErrorMessage != "" {
			field("Error:", report.Incorrect.Render(e.ErrorMessage))
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			p.Println("")
			p.Println(sep)
			p.Println(report.Title.Render(part.title))
			p.Println(sep)
			if part.body == "" {
				p.Println(report.Hint.Render("(not captured)"))
				continue
			}
			// Bodies are printed raw; styling would corrupt JSON.
			fmt.Fprintln(p.Writer(), part.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		p := printer(cmd)
		if len(stats) == 0 {
			p.Println("No LLM usage recorded yet.")
			return nil
		}

		usage := &report.Table{Headers: []string{"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms"}}
		var totalCalls, totalFailed, totalIn, totalOut int
		for _, st := range stats {
			usage.AddRow(st.Purpose, strconv.Itoa(st.Calls), strconv.Itoa(st.Failures),
				strconv.Itoa(st.InputTokens), strconv.Itoa(st.OutputTokens),
				strconv.Itoa(st.InputTokens+st.OutputTokens), fmt.Sprintf("%.0f", st.AvgLatencyMs))
			totalCalls += st.Calls
			totalFailed += st.Failures
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}
		usage.Footer = []string{"TOTAL", strconv.Itoa(totalCalls), strconv.Itoa(totalFailed),
			strconv.Itoa(totalIn), strconv.Itoa(totalOut), strconv.Itoa(totalIn + totalOut), ""}
		p.Println(report.Title.Render("Usage by Purpose"))
		p.Println(usage.Render())

		events, err := s.EventRepo().LLMRequests(ctx, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		models := usageByModel(events)

		cost := &report.Table{Headers: []string{"Model", "Calls", "Input", "Output", "Cost"}}
		var totalCost float64
		var unknown []string
		for _, mu := range models {
			price, ok := llm.PriceOf(mu.model)
			c := "?"
			if ok {
				usd := price.Cost(mu.input, mu.output)
				totalCost += usd
				c = formatCost(usd)
			} else {
				unknown = append(unknown, mu.model)
			}
			cost.AddRow(truncate(mu.model, 32), strconv.Itoa(mu.calls), strconv.Itoa(mu.input), strconv.Itoa(mu.output), c)
		}
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		cost.Footer = []string{label, "", "", "", formatCost(totalCost)}

		p.Println("")
		p.Println(report.Title.Render("Estimated Cost (USD)"))
		p.Println(cost.Render())
		if len(unknown) > 0 {
			p.Println(report.Hint.Render("Pricing unavailable for: " + strings.Join(unknown, ", ")))
		}
		return nil
	},
}

var llmProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and the active configuration",
	Run: func(cmd *cobra.Command, args []string) {
		p := printer(cmd)
		t := &report.Table{Headers: []string{"Provider", "Default model", "Key env", "Key set"}}
		for _, info := range llm.Providers() {
			keySet := "-"
			if info.KeyEnv != "" {
				keySet = report.Mark(os.Getenv(info.KeyEnv) != "")
			}
			name := info.Name
			if info.Name == cfg.LLM.Provider {
				name = report.Highlight.Render(name + " *")
			}
			t.AddRow(name, info.DefaultModel, info.KeyEnv, keySet)
		}
		p.Println(t.Render())
		if cfg.LLM.Enabled() {
			p.Println(report.Hint.Render(fmt.Sprintf("active: %s (%s)", cfg.LLM.Provider, cfg.LLM.ResolvedModel())))
		} else {
			p.Println(report.Hint.Render("no provider configured; set PAL_LLM_PROVIDER or an API key"))
		}
	},
}

type modelUsage struct {
	model                string
	calls, input, output int
}

func usageByModel(events []store.LLMRequestEvent) []modelUsage {
	byModel := make(map[string]*modelUsage)
	for _, e := range events {
		mu, ok := byModel[e.Model]
		if !ok {
			mu = &modelUsage{model: e.Model}
			byModel[e.Model] = mu
		}
		mu.calls++
		mu.input += e.InputTokens
		mu.output += e.OutputTokens
	}
	out := make([]modelUsage, 0, len(byModel))
	for _, mu := range byModel {
		out = append(out, *mu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].model < out[j].model })
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. question)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmProvidersCmd)
}
