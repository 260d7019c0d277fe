package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/eval"
	"github.com/abhisek/pal/internal/session"
)

const barWidth = 32

// Level renders a tier in its color.
func Level(l difficulty.Level) string {
	if st, ok := levelStyle[string(l)]; ok {
		return st.Render(string(l))
	}
	return string(l)
}

func paddedLevel(l difficulty.Level) string {
	s := fmt.Sprintf("%-6s", l)
	if st, ok := levelStyle[string(l)]; ok {
		return st.Render(s)
	}
	return s
}

// Percent formats a fraction as a percentage.
func Percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Mark renders a check or cross.
func Mark(ok bool) string {
	if ok {
		return Correct.Render("✓")
	}
	return Incorrect.Render("✗")
}

// Dist renders one bar per tier.
func Dist(d difficulty.Dist) string {
	lines := make([]string, 0, len(difficulty.Levels))
	for _, l := range difficulty.Levels {
		lines = append(lines, Bar{
			Label:       fmt.Sprintf("%-6s", l),
			Percent:     d.Get(l),
			ShowPercent: true,
			Width:       barWidth + 14,
			Color:       levelStyle[string(l)].GetForeground(),
		}.View())
	}
	return strings.Join(lines, "\n")
}

// SessionSummary renders a finished session.
func SessionSummary(sum *session.Summary) string {
	var b strings.Builder
	b.WriteString(Title.Render("Session complete") + "\n")
	b.WriteString(Subtitle.Render(fmt.Sprintf("%s · %s", sum.Variant, sum.ID)) + "\n\n")

	fmt.Fprintf(&b, "%s %.1f\n", Label.Render("Final score:  "), sum.FinalScore)
	fmt.Fprintf(&b, "%s %d/%d (%s)\n", Label.Render("Correct:      "), sum.Correct, sum.Questions, Percent(sum.Accuracy))
	fmt.Fprintf(&b, "%s %d\n", Label.Render("Best streak:  "), sum.BestStreak)
	fmt.Fprintf(&b, "%s %.0f ms\n\n", Label.Render("Avg response: "), sum.AvgResponseTimeMs)

	t := &Table{Headers: []string{"Difficulty", "Attempted", "Correct", "Accuracy"}}
	for _, l := range difficulty.Levels {
		r := *sum.ByDifficulty.At(l)
		acc := "-"
		if r.Attempted > 0 {
			acc = Percent(r.Accuracy())
		}
		t.AddRow(Level(l), fmt.Sprint(r.Attempted), fmt.Sprint(r.Correct), acc)
	}
	b.WriteString(t.Render())
	return b.String()
}

// Variants renders per-variant evaluation results. adapt may be nil.
func Variants(sums []eval.VariantSummary, adapt map[string]eval.Adaptiveness) string {
	t := &Table{Headers: []string{"Variant", "Runs", "Accuracy", "±", "Score", "Streak", "RT ms", "Easy", "Medium", "Hard"}}
	if adapt != nil {
		t.Headers = append(t.Headers, "Switch", "Stable@")
	}
	for _, s := range sums {
		row := []string{
			Highlight.Render(s.Variant),
			fmt.Sprint(s.Runs),
			Percent(s.MeanAccuracy),
			Percent(s.StdAccuracy),
			fmt.Sprintf("%.1f", s.MeanFinalScore),
			fmt.Sprintf("%.1f", s.MeanBestStreak),
			fmt.Sprintf("%.0f", s.MeanResponseTime),
			Percent(s.AccuracyByLevel.Easy),
			Percent(s.AccuracyByLevel.Medium),
			Percent(s.AccuracyByLevel.Hard),
		}
		if adapt != nil {
			a := adapt[s.Variant]
			stable := "never"
			if a.StabilizationIndex >= 0 {
				stable = fmt.Sprint(a.StabilizationIndex)
			}
			row = append(row, fmt.Sprintf("%.3f", a.SwitchRate), stable)
		}
		t.AddRow(row...)
	}
	return t.Render()
}

// Explanation renders a decision and, indented, the decisions it was
// built from.
func Explanation(exp adaptive.Explanation) string {
	var b strings.Builder
	writeExplanation(&b, exp, "")
	return strings.TrimSuffix(b.String(), "\n")
}

func writeExplanation(b *strings.Builder, exp adaptive.Explanation, indent string) {
	fmt.Fprintf(b, "%s%s → %s\n", indent, Label.Render(exp.Predictor), Level(exp.Difficulty))
	if exp.Reasoning != "" {
		fmt.Fprintf(b, "%s  %s\n", indent, Hint.Render(exp.Reasoning))
	}
	if exp.Probabilities != nil {
		for _, l := range strings.Split(Dist(*exp.Probabilities), "\n") {
			fmt.Fprintf(b, "%s  %s\n", indent, l)
		}
	}
	if exp.GlobalConfidence != nil {
		fmt.Fprintf(b, "%s  confidence %.3f  streak %d  wrong %d\n", indent,
			*exp.GlobalConfidence, exp.Streak, exp.ConsecutiveWrong)
	}
	if exp.QValues != nil {
		q := exp.QValues
		fmt.Fprintf(b, "%s  Q easy %.3f  medium %.3f  hard %.3f  ε %.3f", indent,
			q.Easy, q.Medium, q.Hard, exp.ExplorationRate)
		if exp.Explored {
			b.WriteString("  " + Highlight.Render("explored"))
		}
		b.WriteString("\n")
	}
	if exp.ActionCounts != nil {
		c := exp.ActionCounts
		fmt.Fprintf(b, "%s  actions easy %d  medium %d  hard %d\n", indent, c.Easy, c.Medium, c.Hard)
	}
	if exp.Weights != nil {
		fmt.Fprintf(b, "%s  weights statistical %.2f  rl %.2f  (decision %d)\n", indent,
			exp.Weights.Statistical, exp.Weights.RL, exp.DecisionCount)
		fmt.Fprintf(b, "%s  statistical → %s  rl → %s\n", indent, Level(exp.Statistical), Level(exp.RL))
	}
	for _, d := range exp.Details {
		writeExplanation(b, d, indent+"    ")
	}
}

// Answer renders one answered question.
func Answer(a session.Answered) string {
	return fmt.Sprintf("#%-3d %s %s %+5.1f → %5.1f  %s",
		a.Index, Mark(a.Correct), paddedLevel(a.Difficulty), a.ScoreChange, a.SkillAfter,
		Subtitle.Render(a.Predictor))
}

// Counts renders a map of counts sorted by key.
func Counts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, m[k])
	}
	return strings.Join(parts, "  ")
}
