package questions

import (
	"fmt"
	"strings"

	"github.com/abhisek/pal/internal/difficulty"
)

const systemPrompt = `You write multiple-choice practice questions for a short lesson.

Rules:
- Write exactly one question on the given topic at the requested difficulty.
- Easy questions need one step and recall. Medium questions need two or three steps. Hard questions combine ideas or need careful reasoning.
- Give three or four options. Exactly one is correct; distractors should reflect common mistakes.
- The answer field must repeat the correct option text exactly.
- Do not repeat any question from the "already asked" list.`

var levelGuide = map[difficulty.Level]string{
	difficulty.Easy:   "a learner who is just starting",
	difficulty.Medium: "a learner with a working grasp of the basics",
	difficulty.Hard:   "a learner ready to be stretched",
}

func buildPrompt(topic string, level difficulty.Level, prior, misses []string, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Difficulty: %s (%s)\n", level, levelGuide[level])
	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(numbered(prior, cfg.MaxPrior))
	b.WriteString("\nRecently missed by this learner:\n")
	b.WriteString(numbered(misses, cfg.MaxMisses))
	return b.String()
}

// numbered lists the last max entries, or "None".
func numbered(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}
	var b strings.Builder
	for i, s := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
