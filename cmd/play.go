package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/questions"
	"github.com/abhisek/pal/internal/report"
	"github.com/abhisek/pal/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Answer an adaptive quiz in the terminal",
	Long: "Asks multiple-choice questions at the difficulty the engine picks. " +
		"Answer with the option letter or number; q quits.",
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.IntP("questions", "n", 10, "Number of questions")
	f.String("dataset", "", "MCQ dataset JSON (overrides PAL_DATASET)")
	f.Bool("llm", false, "Generate questions with the configured LLM provider")
	f.Bool("explain", false, "Show why each difficulty was picked")
	f.Bool("no-save", false, "Do not record the session")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	n, _ := f.GetInt("questions")
	if n < 1 {
		return fmt.Errorf("--questions must be positive, got %d", n)
	}
	if path, _ := f.GetString("dataset"); path != "" {
		cfg.Dataset.Path = path
	}
	useLLM, _ := f.GetBool("llm")
	explain, _ := f.GetBool("explain")
	noSave, _ := f.GetBool("no-save")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	src, err := questionSource(ctx, s.EventRepo(), useLLM)
	if err != nil {
		return err
	}

	engine, err := adaptive.NewEngine(variant(), cfg.Engine, adaptive.NewRand(seed()), adaptive.WithLogger(log))
	if err != nil {
		return err
	}
	opts := []session.Option{
		session.WithConfig(cfg.Session),
		session.WithLogger(log),
		session.WithVariant(cfg.Variant),
	}
	if !noSave {
		opts = append(opts, session.WithRecorder(s.ResultRepo()))
	}
	sess := session.New(engine, opts...)

	p := printer(cmd)
	in := bufio.NewScanner(cmd.InOrStdin())
	p.Println(report.Title.Render("PAL quiz"))
	p.Println(report.Hint.Render(fmt.Sprintf("%d questions · %s engine · answer with a letter, q to quit", n, cfg.Variant)))

	for i := range n {
		level := sess.Next()
		q, err := src.Question(ctx, i, level)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}

		p.Println("")
		p.Println(fmt.Sprintf("%s %s  %s", report.Label.Render(fmt.Sprintf("Q%d", i+1)),
			report.Level(level), report.Subtitle.Render(fmt.Sprintf("skill %.0f", sess.State().SkillScore))))
		if explain {
			if exp, ok := sess.Explain(); ok {
				p.Println(report.Explanation(exp))
			}
		}
		p.Println(report.Body.Render(q.Text))
		for j, o := range q.Options {
			p.Println(fmt.Sprintf("  %s) %s", optionLetter(j), o))
		}

		start := clock()
		selected, quit := prompt(p, in, q)
		if quit {
			p.Println(report.Hint.Render("Stopped early."))
			break
		}
		correct := q.IsCorrect(selected)
		a, err := sess.Answer(session.Outcome{
			Correct:        correct,
			ResponseTimeMs: float64(clock().Sub(start).Milliseconds()),
			QuestionText:   q.Text,
			Selected:       selected,
			CorrectAnswer:  q.Answer,
		})
		if err != nil {
			return err
		}
		if fb, ok := src.(questions.Feedback); ok {
			fb.Record(q, selected)
		}

		if correct {
			p.Println(report.Correct.Render(fmt.Sprintf("Correct! %+.0f", a.ScoreChange)))
		} else {
			p.Println(report.Incorrect.Render(fmt.Sprintf("Not quite. The answer is %s. %+.0f", q.Answer, a.ScoreChange)))
		}
	}

	if len(sess.Answered()) == 0 {
		return nil
	}
	sum, err := sess.Finish(ctx)
	if err != nil {
		log.Warn("session not saved", zap.Error(err))
		sum = sess.Summary()
	}
	p.Println("")
	p.Println(report.SessionSummary(sum))
	return nil
}

// prompt reads until a valid option is chosen. It reports quit on "q" or
// end of input.
func prompt(p *report.Printer, in *bufio.Scanner, q *questions.Question) (string, bool) {
	for {
		p.Printf("%s ", report.Highlight.Render(">"))
		if !in.Scan() {
			p.Println("")
			return "", true
		}
		text := strings.TrimSpace(in.Text())
		if strings.EqualFold(text, "q") {
			return "", true
		}
		if idx, ok := parseChoice(text, len(q.Options)); ok {
			return q.Options[idx], false
		}
		p.Println(report.Hint.Render(fmt.Sprintf("Enter %s-%s.", optionLetter(0), optionLetter(len(q.Options)-1))))
	}
}

// parseChoice accepts a letter (A, b) or a 1-based number.
func parseChoice(s string, n int) (int, bool) {
	if s == "" {
		return 0, false
	}
	if num, err := strconv.Atoi(s); err == nil {
		return num - 1, num >= 1 && num <= n
	}
	if len(s) != 1 {
		return 0, false
	}
	idx := int(strings.ToUpper(s)[0] - 'A')
	return idx, idx >= 0 && idx < n
}

func optionLetter(i int) string {
	return string(rune('A' + i))
}
