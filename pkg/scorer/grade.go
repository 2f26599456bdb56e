package score

import (
	"fmt"
	"strings"
)

// Grade is the human-readable label for a deal score.
type Grade string

// Grade constants, best first.
const (
	GradeInsane       Grade = "insane"
	GradeGreat        Grade = "great"
	GradeGood         Grade = "good"
	GradeFair         Grade = "fair"
	GradeBelowAverage Grade = "below average"
	GradePoorValue    Grade = "poor value"
)

// Threshold is the minimum score for a grade.
type Threshold struct {
	Grade    Grade `json:"grade"`
	MinScore int   `json:"min_score"`
}

// grades is the only place score band cutoffs are declared. Consumers
// (notifiers, API, CLI) read them through Thresholds and GradeFor.
var grades = []Threshold{
	{Grade: GradeInsane, MinScore: 90},
	{Grade: GradeGreat, MinScore: 75},
	{Grade: GradeGood, MinScore: 60},
	{Grade: GradeFair, MinScore: 45},
	{Grade: GradeBelowAverage, MinScore: 30},
	{Grade: GradePoorValue, MinScore: 0},
}

// Thresholds returns a copy of the grade table, best grade first.
func Thresholds() []Threshold {
	out := make([]Threshold, len(grades))
	copy(out, grades)
	return out
}

// GradeFor maps a clamped score to its grade.
func GradeFor(score int) Grade {
	for _, t := range grades {
		if score >= t.MinScore {
			return t.Grade
		}
	}
	return GradePoorValue
}

// MinScore returns the lowest score that earns g.
func (g Grade) MinScore() int {
	for _, t := range grades {
		if t.Grade == g {
			return t.MinScore
		}
	}
	return 0
}

// AtLeast reports whether g is the same as or better than other.
func (g Grade) AtLeast(other Grade) bool {
	return g.MinScore() >= other.MinScore()
}

// ParseGrade converts a label (case-insensitive, "_" accepted for spaces)
// into a Grade.
func ParseGrade(s string) (Grade, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", " ")
	for _, t := range grades {
		if string(t.Grade) == norm {
			return t.Grade, nil
		}
	}
	return "", fmt.Errorf("unknown grade %q", s)
}
