package student

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	NationalID string    `json:"national_id"`
	Group      string    `json:"group"`
	UserID     string    `json:"user_id,omitempty"` // external account, never interpreted
	CreatedAt  time.Time `json:"created_at"`        // UTC
	UpdatedAt  time.Time `json:"updated_at"`        // UTC
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name       string `json:"name" validate:"required,notblank,max=100"`
	NationalID string `json:"national_id" validate:"required,nationalid"`
	Group      string `json:"group" validate:"max=50"`
	UserID     string `json:"user_id" validate:"max=100"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.NationalID = strings.ToUpper(core.CleanString(ns.NationalID))
	ns.Group = core.CleanString(ns.Group)
	ns.UserID = core.CleanString(ns.UserID)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckNationalIDUniqueness(ctx, ns.NationalID)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// The national id cannot be changed once set.
type UpdateStudent struct {
	Name   string  `json:"name" validate:"required,notblank,max=100"`
	Group  *string `json:"group" validate:"omitempty,max=50"`
	UserID *string `json:"user_id" validate:"omitempty,max=100"`
}

// Validate fills omitted fields from origStd before validating.
func (us *UpdateStudent) Validate(origStd Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = origStd.Name
	}

	if us.Group != nil {
		grp := core.CleanString(*us.Group)
		us.Group = &grp
	} else {
		us.Group = &origStd.Group
	}

	if us.UserID != nil {
		uid := core.CleanString(*us.UserID)
		us.UserID = &uid
	} else {
		us.UserID = &origStd.UserID
	}

	return validate.Struct(us)
}

type QueryFilter struct {
	Search string `query:"search"` // case-insensitive match on Name or NationalID
	Group  string `query:"group"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Group == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Group = core.CleanString(qf.Group)
}

// OrderingFields maps the orderable json fields to their columns.
var OrderingFields = map[string]string{
	"name":        "name",
	"national_id": "national_id",
	"group":       "group_name",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}
