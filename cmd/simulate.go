package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/eval"
	"github.com/abhisek/pal/internal/report"
	"github.com/abhisek/pal/internal/sim"
	"github.com/abhisek/pal/internal/store"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated learners through the engine",
	Long: "Drives sessions with a simulated learner and prints accuracy, score and " +
		"adaptiveness per engine variant. Results are saved unless --no-save is given.",
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntP("runs", "r", 0, "Sessions per variant (default from config)")
	f.IntP("questions", "n", 0, "Questions per session (default from config)")
	f.Float64("correct-prob", -1, "Flat probability of a correct answer (0 uses --ability)")
	f.Float64("ability", -1, "Learner ability on the skill scale; answers follow the IRT curve")
	f.Float64("growth", 0, "Ability gained per correct answer")
	f.Bool("all", false, "Simulate every variant")
	f.Bool("no-save", false, "Do not record sessions in the database")
	f.Bool("questions-text", false, "Attach lesson question text to recorded answers")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc := cfg.Sim
	f := cmd.Flags()
	if n, _ := f.GetInt("runs"); n > 0 {
		sc.Runs = n
	}
	if n, _ := f.GetInt("questions"); n > 0 {
		sc.Questions = n
	}
	if p, _ := f.GetFloat64("correct-prob"); p >= 0 {
		if p > 1 {
			return fmt.Errorf("--correct-prob must be within [0, 1], got %v", p)
		}
		sc.Learner.CorrectProb = p
	}
	if a, _ := f.GetFloat64("ability"); a >= 0 {
		sc.Learner.Ability = a
		sc.Learner.CorrectProb = 0
	}
	if g, _ := f.GetFloat64("growth"); g > 0 {
		sc.Learner.Growth = g
	}
	if sc.Seed == 0 {
		sc.Seed = seed()
	}

	runner := &sim.Runner{
		Engine:  cfg.Engine,
		Session: cfg.Session,
		Log:     log,
	}
	if withText, _ := f.GetBool("questions-text"); withText {
		src, err := questionSource(ctx, nil, false)
		if err != nil {
			return err
		}
		runner.Source = src
	}
	if noSave, _ := f.GetBool("no-save"); !noSave {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		runner.Results = s.ResultRepo()
	}

	variants := []adaptive.Variant{variant()}
	if all, _ := f.GetBool("all"); all {
		variants = adaptive.Variants
	}

	var recs []store.SessionRecord
	adapt := make(map[string]eval.Adaptiveness)
	for _, v := range variants {
		sc.Variant = string(v)
		sums, err := runner.Run(ctx, sc)
		if err != nil {
			return fmt.Errorf("simulate %s: %w", v, err)
		}
		var vrecs []store.SessionRecord
		for _, sum := range sums {
			vrecs = append(vrecs, sum.Record())
		}
		adapt[string(v)] = eval.MeasureSessions(vrecs)
		recs = append(recs, vrecs...)
	}

	p := printer(cmd)
	p.Println(report.Title.Render("Simulation"))
	p.Println(report.Subtitle.Render(fmt.Sprintf("%d runs × %d questions · seed %d · %s",
		sc.Runs, sc.Questions, sc.Seed, describeLearner(sc.Learner))))
	p.Println("")
	p.Println(report.Variants(eval.Summarize(recs), adapt))
	return nil
}

func describeLearner(lc sim.LearnerConfig) string {
	if lc.CorrectProb > 0 {
		return fmt.Sprintf("flat learner, p(correct) %.2f", lc.CorrectProb)
	}
	return fmt.Sprintf("IRT learner, ability %.0f, growth %.1f", lc.Ability, lc.Growth)
}
