package stats

import (
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
)

// TotalAbsences sums the student's absence counts over all modules.
func TotalAbsences(studentID string, absences grade.Absences) int {
	total := 0
	for key, count := range absences {
		if key.StudentID == studentID && count > 0 {
			total += count
		}
	}
	return total
}

type AbsenceTotal struct {
	Student student.Student `json:"student"`
	Total   int             `json:"total"`
}

// AbsenceTotals returns the total absences of every cohort student, in cohort order.
func AbsenceTotals(s Snapshot) []AbsenceTotal {
	perStudent := make(map[string]int, len(s.Students))
	for key, count := range s.Absences {
		if count > 0 {
			perStudent[key.StudentID] += count
		}
	}
	res := make([]AbsenceTotal, 0, len(s.Students))
	for _, std := range s.Students {
		res = append(res, AbsenceTotal{Student: std, Total: perStudent[std.ID]})
	}
	return res
}
