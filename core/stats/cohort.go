package stats

import (
	"sort"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

// Snapshot is a consistent read of the records. Students is the cohort, in display order.
type Snapshot struct {
	Students []student.Student
	Modules  []module.Module
	Grades   grade.Grades
	Absences grade.Absences
}

// Cohort keeps the students of group, in order. An empty group keeps everyone.
func Cohort(students []student.Student, group string) []student.Student {
	res := make([]student.Student, 0, len(students))
	for _, std := range students {
		if group == "" || std.Group == group {
			res = append(res, std)
		}
	}
	return res
}

// ForGroup returns a copy of s restricted to the students of group.
func (s Snapshot) ForGroup(group string) Snapshot {
	s.Students = Cohort(s.Students, group)
	return s
}

// Ranked is a student with an average, placed among the averaged students of the cohort.
type Ranked struct {
	Student    student.Student `json:"student"`
	Average    float64         `json:"average"`
	Mention    Mention         `json:"mention"`
	Rank       int             `json:"rank"`       // 1-based
	Percentile int             `json:"percentile"` // round((N - Rank + 1) / N * 100)
}

type averaged struct {
	std student.Student
	avg float64
}

// averages lists the students having an average, in cohort order.
func averages(s Snapshot) []averaged {
	res := make([]averaged, 0, len(s.Students))
	for _, std := range s.Students {
		if avg, ok := Average(std.ID, s.Modules, s.Grades); ok {
			res = append(res, averaged{std: std, avg: avg})
		}
	}
	return res
}

// SuccessRate is the percentage of the cohort that passes.
// Students without an average count as not passed; an empty cohort gives 0.
func SuccessRate(s Snapshot) int {
	var passed int
	for _, a := range averages(s) {
		if Passes(a.avg, true) {
			passed++
		}
	}
	return percent(passed, len(s.Students))
}

// Rank sorts the averaged students by descending average. Ties keep the cohort order.
// Students without an average are left out.
func Rank(s Snapshot) []Ranked {
	avgs := averages(s)
	sort.SliceStable(avgs, func(i, j int) bool { return avgs[i].avg > avgs[j].avg })

	n := len(avgs)
	res := make([]Ranked, n)
	for i, a := range avgs {
		res[i] = Ranked{
			Student:    a.std,
			Average:    a.avg,
			Mention:    Classify(a.avg),
			Rank:       i + 1,
			Percentile: percent(n-i, n),
		}
	}
	return res
}

// BestAndWorst returns the highest and lowest averaged students; ties go to the first one in the cohort.
// ok is false when nobody has an average.
func BestAndWorst(s Snapshot) (best, worst Ranked, ok bool) {
	ranking := Rank(s)
	if len(ranking) == 0 {
		return Ranked{}, Ranked{}, false
	}
	best = ranking[0]
	worst = ranking[len(ranking)-1]
	// the stable sort puts the last encountered of the lowest ties at the end
	for i := len(ranking) - 2; i >= 0 && ranking[i].Average == worst.Average; i-- {
		worst = ranking[i]
	}
	return best, worst, true
}

// Percentile returns the rank and percentile of studentID among the averaged students.
// ok is false when the student has no average or is not in the cohort.
func Percentile(s Snapshot, studentID string) (rank, percentile int, ok bool) {
	for _, r := range Rank(s) {
		if r.Student.ID == studentID {
			return r.Rank, r.Percentile, true
		}
	}
	return 0, 0, false
}
