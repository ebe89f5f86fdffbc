package module

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound   = errors.New("module not found")
	ErrNameExists = errors.New("a module with this name already exists")
)

type (
	Repository interface {
		// CheckNameUniqueness is case-insensitive.
		CheckNameUniqueness(ctx context.Context, name string, excludedModules ...Module) error
		CreateModule(ctx context.Context, mod Module) (Module, error)
		QueryModules(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Module, error)
		GetModule(ctx context.Context, id string) (Module, error)
		UpdateModule(ctx context.Context, mod Module) (Module, error)
		// DeleteModule also deletes the grades and absences recorded for the module.
		DeleteModule(ctx context.Context, id string) error
	}

	Service interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedModules ...Module) error
		Create(ctx context.Context, nm NewModule) (Module, error)
		Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Module, error)
		Get(ctx context.Context, id string) (Module, error)
		Update(ctx context.Context, id string, um UpdateModule) (Module, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckNameUniqueness(ctx context.Context, name string, exclMods ...Module) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclMods...); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nm NewModule) (Module, error) {
	now := core.NowFunc()
	mod := Module{
		ID:          uuid.NewString(),
		Name:        nm.Name,
		Coefficient: nm.Coefficient,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nm.ExamDate != nil {
		ed := nm.ExamDate.UTC()
		mod.ExamDate = &ed
	}
	return svc.repo.CreateModule(ctx, mod)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Module, error) {
	filter.Clean()
	return svc.repo.QueryModules(ctx, filter, core.FilterOrderings(orderings, OrderingFields)...)
}

func (svc *service) Get(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModule(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, um UpdateModule) (Module, error) {
	mod, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return Module{}, err
	}
	mod.Name = um.Name
	if um.Coefficient != nil {
		mod.Coefficient = *um.Coefficient
	}
	if um.ExamDate != nil {
		ed := um.ExamDate.UTC()
		mod.ExamDate = &ed
	}
	mod.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateModule(ctx, mod)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteModule(ctx, id)
}
