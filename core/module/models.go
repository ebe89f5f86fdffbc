package module

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

// Module is a course; its Coefficient weights its grades in a student's average.
type Module struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Coefficient float64    `json:"coefficient"`
	ExamDate    *time.Time `json:"exam_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

type NewModule struct {
	Name        string     `json:"name" validate:"required,notblank,max=100"`
	Coefficient float64    `json:"coefficient" validate:"coef"`
	ExamDate    *time.Time `json:"exam_date"`
}

func (nm *NewModule) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nm.Name = core.CleanString(nm.Name)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, nm.Name)
}

// UpdateModule defines what information may be provided to modify an existing Module.
type UpdateModule struct {
	Name        string     `json:"name" validate:"required,notblank,max=100"`
	Coefficient *float64   `json:"coefficient" validate:"omitempty,coef"`
	ExamDate    *time.Time `json:"exam_date"`
}

func (um *UpdateModule) Validate(ctx context.Context, origMod Module, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(um.Name); name != "" {
		um.Name = name
	} else {
		um.Name = origMod.Name
	}

	if err := validate.Struct(um); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, um.Name, origMod)
}

type QueryFilter struct {
	Search string `query:"search"` // case-insensitive match on Name
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

var OrderingFields = map[string]string{
	"name":        "name",
	"coefficient": "coefficient",
	"exam_date":   "exam_date",
	"created_at":  "created_at",
}
