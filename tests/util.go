package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

// NewValidator returns a validator knowing every custom tag, with its english translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	module.InitValidators(validate, translator)
	return validate, translator
}

func CreateStudent(t *testing.T, repo student.Repository, name, nationalID, group string, createdAt ...time.Time) student.Student {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std, err := repo.CreateStudent(context.Background(), student.Student{
		ID:         uuid.NewString(),
		Name:       name,
		NationalID: nationalID,
		Group:      group,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateModule(t *testing.T, repo module.Repository, name string, coef float64) module.Module {
	t.Helper()

	now := time.Now().UTC()
	mod, err := repo.CreateModule(context.Background(), module.Module{
		ID:          uuid.NewString(),
		Name:        name,
		Coefficient: coef,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func SetGrade(t *testing.T, repo grade.Repository, std student.Student, mod module.Module, value float64) {
	t.Helper()

	g := grade.Grade{StudentID: std.ID, ModuleID: mod.ID, Value: value}
	if _, err := repo.SetGrade(context.Background(), g); err != nil {
		t.Fatalf("SetGrade() failed: %v", err)
	}
}

func SetAbsence(t *testing.T, repo grade.Repository, std student.Student, mod module.Module, count int) {
	t.Helper()

	a := grade.Absence{StudentID: std.ID, ModuleID: mod.ID, Count: count}
	if _, err := repo.SetAbsence(context.Background(), a); err != nil {
		t.Fatalf("SetAbsence() failed: %v", err)
	}
}
