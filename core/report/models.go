package report

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/stats"
	"github.com/trezcool/gradebook/core/student"
)

// averages and grades are presented with 2 decimals
const decimals = 2

type ClassReport struct {
	Group string `json:"group"`
	stats.Summary
}

type Ranking struct {
	Group    string            `json:"group"`
	Ranked   []stats.Ranked    `json:"ranked"`
	Unranked []student.Student `json:"unranked"` // cohort students without an average
}

type ModuleLine struct {
	ModuleID    string   `json:"module_id"`
	Name        string   `json:"name"`
	Coefficient float64  `json:"coefficient"`
	Grade       *float64 `json:"grade"`
	Absences    int      `json:"absences"`
}

func (ml ModuleLine) CoefficientText() string {
	return strconv.FormatFloat(ml.Coefficient, 'f', -1, 64)
}

func (ml ModuleLine) GradeText() string {
	if ml.Grade == nil {
		return "-"
	}
	return strconv.FormatFloat(*ml.Grade, 'f', decimals, 64)
}

// StudentReport is a student's report card. Rank and Percentile are 0 when the student is not ranked
// among the Group cohort.
type StudentReport struct {
	Student       student.Student `json:"student"`
	Group         string          `json:"group"`
	Average       *float64        `json:"average"`
	Mention       stats.Mention   `json:"mention,omitempty"`
	Passed        bool            `json:"passed"`
	Rank          int             `json:"rank,omitempty"`
	Ranked        int             `json:"ranked"` // number of ranked students in the cohort
	Percentile    int             `json:"percentile,omitempty"`
	Modules       []ModuleLine    `json:"modules"`
	TotalAbsences int             `json:"total_absences"`
}

func (sr StudentReport) AverageText() string {
	if sr.Average == nil {
		return "-"
	}
	return strconv.FormatFloat(*sr.Average, 'f', decimals, 64)
}

// SendReportCard is the payload asking for a report card to be emailed.
type SendReportCard struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=100"`
}

func (src *SendReportCard) Validate(validate *validator.Validate) error {
	src.Email = core.CleanString(src.Email, true /* lower */)
	src.Name = core.CleanString(src.Name)
	return validate.Struct(src)
}

// SnapshotReader reads all the records in one consistent read.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context) (stats.Snapshot, error)
}
