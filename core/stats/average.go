// Package stats turns raw student, module, grade and absence records into averages, mentions,
// success rates, rankings and distributions. Every function is pure: it only reads its arguments.
package stats

import (
	"math"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
)

// PassMark is the lowest passing average.
const PassMark = 10.

// Mention is the qualitative band of an average.
type Mention string

const (
	Excellent Mention = "Excellent"
	VeryGood  Mention = "Very Good"
	Good      Mention = "Good"
	Pass      Mention = "Pass"
	Fail      Mention = "Fail"
)

// Mentions lists the bands from highest to lowest, each with its inclusive lower bound.
var Mentions = []struct {
	Mention Mention
	Min     float64
}{
	{Excellent, 16},
	{VeryGood, 14},
	{Good, 12},
	{Pass, PassMark},
	{Fail, math.Inf(-1)},
}

// Average is the coefficient-weighted mean of the student's grades over modules.
// Modules without a grade for the student are left out. ok is false when no grade counts.
func Average(studentID string, modules []module.Module, grades grade.Grades) (avg float64, ok bool) {
	var num, den float64
	for _, mod := range modules {
		if !module.ValidCoefficient(mod.Coefficient) {
			continue
		}
		g, found := grades[grade.Key{StudentID: studentID, ModuleID: mod.ID}]
		if !found || math.IsNaN(g) {
			continue
		}
		num += g * mod.Coefficient
		den += mod.Coefficient
	}
	if den <= 0 {
		return 0, false
	}
	return num / den, true
}

// Classify returns the band avg falls in. NaN is a Fail.
func Classify(avg float64) Mention {
	for _, band := range Mentions {
		if avg >= band.Min {
			return band.Mention
		}
	}
	return Fail
}

// MentionOf classifies avg only when it exists.
func MentionOf(avg float64, ok bool) (Mention, bool) {
	if !ok {
		return "", false
	}
	return Classify(avg), true
}

// Passes reports whether an existing avg reaches PassMark.
func Passes(avg float64, ok bool) bool {
	return ok && avg >= PassMark
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// percent is round(n / total * 100), 0 when total is 0.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
