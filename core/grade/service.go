package grade

import (
	"context"
	"fmt"

	"github.com/trezcool/gradebook/core"
)

var (
	errValueOutOfRange = fmt.Sprintf("grade must be between %g and %g", MinValue, MaxValue)
	errNegativeCount   = "absence count cannot be negative"
)

type (
	// Repository stores grade and absence facts.
	// Writes referencing an unknown student or module fail with student.ErrNotFound or module.ErrNotFound.
	Repository interface {
		// SetGrade inserts or overwrites the grade at g.Key().
		SetGrade(ctx context.Context, g Grade) (Grade, error)
		// DeleteGrade is a no-op when no grade is recorded at key.
		DeleteGrade(ctx context.Context, key Key) error
		// SetAbsence inserts or overwrites the count at a.Key(); a 0 count deletes the record.
		SetAbsence(ctx context.Context, a Absence) (Absence, error)
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
		QueryAbsences(ctx context.Context, filter QueryFilter) ([]Absence, error)
	}

	Service interface {
		// SetGrade records value at key, or removes the grade when value is nil.
		// The returned Grade is nil when the grade was removed.
		SetGrade(ctx context.Context, key Key, value *float64) (*Grade, error)
		SetAbsence(ctx context.Context, key Key, count int) (Absence, error)
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
		QueryAbsences(ctx context.Context, filter QueryFilter) ([]Absence, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) SetGrade(ctx context.Context, key Key, value *float64) (*Grade, error) {
	if value == nil {
		return nil, svc.repo.DeleteGrade(ctx, key)
	}
	if !ValidValue(*value) {
		return nil, core.NewFieldValidationError("value", errValueOutOfRange)
	}
	g, err := svc.repo.SetGrade(ctx, Grade{StudentID: key.StudentID, ModuleID: key.ModuleID, Value: *value})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (svc *service) SetAbsence(ctx context.Context, key Key, count int) (Absence, error) {
	if count < 0 {
		return Absence{}, core.NewFieldValidationError("count", errNegativeCount)
	}
	return svc.repo.SetAbsence(ctx, Absence{StudentID: key.StudentID, ModuleID: key.ModuleID, Count: count})
}

func (svc *service) QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter)
}

func (svc *service) QueryAbsences(ctx context.Context, filter QueryFilter) ([]Absence, error) {
	return svc.repo.QueryAbsences(ctx, filter)
}
