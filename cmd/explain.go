package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/report"
	"github.com/abhisek/pal/internal/session"
)

var explainCmd = &cobra.Command{
	Use:   "explain <answers>",
	Short: "Walk through engine decisions for a scripted answer sequence",
	Long: "Replays a sequence of answers and shows how each difficulty was picked.\n" +
		"Answers are c (correct) or w (wrong), e.g. \"ccwcw\". A response time in ms " +
		"may follow each answer after a colon: \"c:2500,w:9000\".",
	Example: "  pal explain cccww --variant rl --seed 7",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _ := cmd.Flags().GetFloat64("rt")
		asJSON, _ := cmd.Flags().GetBool("json")
		steps, err := parseScript(args[0], rt)
		if err != nil {
			return err
		}

		engine, err := adaptive.NewEngine(variant(), cfg.Engine, adaptive.NewRand(seed()), adaptive.WithLogger(log))
		if err != nil {
			return err
		}
		sess := session.New(engine,
			session.WithConfig(cfg.Session),
			session.WithLogger(log),
			session.WithVariant(cfg.Variant))

		type step struct {
			Decision adaptive.Explanation `json:"decision"`
			Answer   session.Answered     `json:"answer"`
		}
		var out []step
		for _, o := range steps {
			sess.Next()
			exp, _ := sess.Explain()
			a, err := sess.Answer(o)
			if err != nil {
				return err
			}
			out = append(out, step{Decision: exp, Answer: a})
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		p := printer(cmd)
		p.Println(report.Title.Render(fmt.Sprintf("%s engine · %d answers", cfg.Variant, len(out))))
		for _, s := range out {
			p.Println("")
			p.Println(report.Answer(s.Answer))
			p.Println(report.Explanation(s.Decision))
		}
		p.Println("")
		p.Println(report.SessionSummary(sess.Summary()))
		return nil
	},
}

func init() {
	explainCmd.Flags().Float64("rt", 5000, "Response time in ms for answers without one")
	explainCmd.Flags().Bool("json", false, "Print decisions as JSON")
}

// parseScript reads "ccw" or "c:2500,w:9000" into outcomes.
func parseScript(script string, defaultRT float64) ([]session.Outcome, error) {
	var tokens []string
	if strings.ContainsAny(script, ",:") {
		tokens = strings.Split(script, ",")
	} else {
		tokens = strings.Split(script, "")
	}

	var out []session.Outcome
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		mark, rtText, hasRT := strings.Cut(tok, ":")
		o := session.Outcome{ResponseTimeMs: defaultRT}
		switch strings.ToLower(mark) {
		case "c", "1", "y":
			o.Correct = true
		case "w", "0", "n", "x":
		default:
			return nil, fmt.Errorf("invalid answer %q: want c or w", tok)
		}
		if hasRT {
			if _, err := fmt.Sscanf(rtText, "%g", &o.ResponseTimeMs); err != nil || o.ResponseTimeMs < 0 {
				return nil, fmt.Errorf("invalid response time in %q", tok)
			}
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no answers in %q", script)
	}
	return out, nil
}
