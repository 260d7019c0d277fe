package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pal/internal/eval"
	"github.com/abhisek/pal/internal/report"
	"github.com/abhisek/pal/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-variant statistics of recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		recent, _ := cmd.Flags().GetInt("recent")
		opts := store.QueryOpts{Limit: limit, WithAnswers: true}
		if cmd.Flags().Changed("variant") {
			opts.Variant = cfg.Variant
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.ResultRepo().ListSessions(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		p := printer(cmd)
		if len(recs) == 0 {
			p.Println("No sessions recorded yet.")
			return nil
		}

		byVariant := make(map[string][]store.SessionRecord)
		for _, r := range recs {
			byVariant[r.Variant] = append(byVariant[r.Variant], r)
		}
		adapt := make(map[string]eval.Adaptiveness, len(byVariant))
		for v, rs := range byVariant {
			adapt[v] = eval.MeasureSessions(rs)
		}

		p.Println(report.Title.Render("Sessions by variant"))
		p.Println(report.Variants(eval.Summarize(recs), adapt))

		if recent > 0 {
			t := &report.Table{Headers: []string{"Session", "Variant", "Started", "Questions", "Accuracy", "Score", "Streak"}}
			for _, r := range recs[:min(recent, len(recs))] {
				t.AddRow(
					truncate(r.ID, 8),
					r.Variant,
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprint(r.Questions),
					report.Percent(r.Accuracy),
					fmt.Sprintf("%.1f", r.FinalScore),
					fmt.Sprint(r.BestStreak),
				)
			}
			p.Println("")
			p.Println(report.Title.Render("Recent sessions"))
			p.Println(t.Render())
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 0, "Only use the newest N sessions (0 = all)")
	statsCmd.Flags().Int("recent", 5, "Number of recent sessions to list")
}
