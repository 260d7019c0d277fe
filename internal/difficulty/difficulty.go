package difficulty

import (
	"fmt"
	"strings"
)

// Level is a question difficulty tier. The zero value means "absent".
type Level string

const (
	Easy   Level = "Easy"
	Medium Level = "Medium"
	Hard   Level = "Hard"
)

// Levels lists the tiers in ascending order.
var Levels = []Level{Easy, Medium, Hard}

// Rank returns the ordinal position of the tier (Easy < Medium < Hard),
// or -1 when the level is absent or unknown.
func (l Level) Rank() int {
	switch l {
	case Easy:
		return 0
	case Medium:
		return 1
	case Hard:
		return 2
	}
	return -1
}

// Valid reports whether l is one of the three tiers.
func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// FromRank is the inverse of Rank. Out-of-range values map to Easy.
func FromRank(r int) Level {
	if r < 0 || r >= len(Levels) {
		return Easy
	}
	return Levels[r]
}

// Parse accepts full tier names and their first letters, case-insensitively.
func Parse(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty difficulty")
	}
	switch s[0] {
	case 'e':
		return Easy, nil
	case 'm':
		return Medium, nil
	case 'h':
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// PerLevel holds one value per tier.
type PerLevel[T any] struct {
	Easy   T `json:"easy"`
	Medium T `json:"medium"`
	Hard   T `json:"hard"`
}

// At returns a pointer to the value for l. It panics on an invalid level.
func (p *PerLevel[T]) At(l Level) *T {
	switch l {
	case Easy:
		return &p.Easy
	case Medium:
		return &p.Medium
	case Hard:
		return &p.Hard
	}
	panic(fmt.Sprintf("difficulty: invalid level %q", string(l)))
}
