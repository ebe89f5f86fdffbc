package stats

import (
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
)

// Distribution counts the averaged students per Mention.
type Distribution struct {
	Excellent int `json:"excellent"`
	VeryGood  int `json:"very_good"`
	Good      int `json:"good"`
	Pass      int `json:"pass"`
	Fail      int `json:"fail"`
}

func (d *Distribution) add(m Mention) {
	switch m {
	case Excellent:
		d.Excellent++
	case VeryGood:
		d.VeryGood++
	case Good:
		d.Good++
	case Pass:
		d.Pass++
	default:
		d.Fail++
	}
}

// Count returns the number of students in band m.
func (d Distribution) Count(m Mention) int {
	switch m {
	case Excellent:
		return d.Excellent
	case VeryGood:
		return d.VeryGood
	case Good:
		return d.Good
	case Pass:
		return d.Pass
	case Fail:
		return d.Fail
	}
	return 0
}

func (d Distribution) Total() int {
	return d.Excellent + d.VeryGood + d.Good + d.Pass + d.Fail
}

// Distribute classifies every averaged student of the cohort.
func Distribute(s Snapshot) Distribution {
	var d Distribution
	for _, a := range averages(s) {
		d.add(Classify(a.avg))
	}
	return d
}

// OverallAverage is the plain mean of the cohort's student averages.
func OverallAverage(s Snapshot) (float64, bool) {
	avgs := averages(s)
	if len(avgs) == 0 {
		return 0, false
	}
	var sum float64
	for _, a := range avgs {
		sum += a.avg
	}
	return sum / float64(len(avgs)), true
}

type ModuleCompletion struct {
	Module  module.Module `json:"module"`
	Graded  int           `json:"graded"`
	Percent int           `json:"percent"`
}

// Completion is, per module, the percentage of the cohort holding a grade in it.
func Completion(s Snapshot) []ModuleCompletion {
	res := make([]ModuleCompletion, 0, len(s.Modules))
	for _, mod := range s.Modules {
		graded := 0
		for _, std := range s.Students {
			if _, ok := s.Grades[grade.Key{StudentID: std.ID, ModuleID: mod.ID}]; ok {
				graded++
			}
		}
		res = append(res, ModuleCompletion{Module: mod, Graded: graded, Percent: percent(graded, len(s.Students))})
	}
	return res
}

// ModuleAverage is the mean grade of a module over the graded cohort students.
// Average is nil when nobody is graded in the module.
type ModuleAverage struct {
	Module  module.Module `json:"module"`
	Average *float64      `json:"average"`
	Graded  int           `json:"graded"`
}

func ModuleAverages(s Snapshot) []ModuleAverage {
	res := make([]ModuleAverage, 0, len(s.Modules))
	for _, mod := range s.Modules {
		var sum float64
		graded := 0
		for _, std := range s.Students {
			if g, ok := s.Grades[grade.Key{StudentID: std.ID, ModuleID: mod.ID}]; ok {
				sum += g
				graded++
			}
		}
		ma := ModuleAverage{Module: mod, Graded: graded}
		if graded > 0 {
			avg := sum / float64(graded)
			ma.Average = &avg
		}
		res = append(res, ma)
	}
	return res
}
