package grade

import "math"

// Grade bounds, inclusive.
const (
	MinValue = 0.
	MaxValue = 20.
)

// Key identifies the grade or absence record of one student in one module.
type Key struct {
	StudentID string
	ModuleID  string
}

type (
	// Grades holds at most one value per Key, each in [MinValue, MaxValue].
	Grades map[Key]float64

	// Absences holds positive counts only; a missing Key means 0.
	Absences map[Key]int
)

func (g Grades) Clone() Grades {
	c := make(Grades, len(g))
	for k, v := range g {
		c[k] = v
	}
	return c
}

func (a Absences) Clone() Absences {
	c := make(Absences, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

type Grade struct {
	StudentID string  `json:"student_id"`
	ModuleID  string  `json:"module_id"`
	Value     float64 `json:"value"`
}

func (g Grade) Key() Key { return Key{StudentID: g.StudentID, ModuleID: g.ModuleID} }

type Absence struct {
	StudentID string `json:"student_id"`
	ModuleID  string `json:"module_id"`
	Count     int    `json:"count"`
}

func (a Absence) Key() Key { return Key{StudentID: a.StudentID, ModuleID: a.ModuleID} }

// GradesOf indexes grades by Key; later entries win.
func GradesOf(grades []Grade) Grades {
	res := make(Grades, len(grades))
	for _, g := range grades {
		res[g.Key()] = g.Value
	}
	return res
}

// AbsencesOf indexes absences by Key, skipping zero counts.
func AbsencesOf(absences []Absence) Absences {
	res := make(Absences, len(absences))
	for _, a := range absences {
		if a.Count > 0 {
			res[a.Key()] = a.Count
		}
	}
	return res
}

// ValidValue reports whether v may be recorded as a grade.
func ValidValue(v float64) bool {
	return !math.IsNaN(v) && v >= MinValue && v <= MaxValue
}

// SetGrade is the payload recording a grade; a null value removes it.
type SetGrade struct {
	Value *float64 `json:"value"`
}

// SetAbsence is the payload recording an absence count; 0 removes it.
type SetAbsence struct {
	Count int `json:"count"`
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	ModuleID  string `query:"module_id"`
}
