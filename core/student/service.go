package student

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound         = errors.New("student not found")
	ErrNationalIDExists = errors.New("a student with this national id already exists")
)

type (
	Repository interface {
		CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		QueryStudents(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByNationalID(ctx context.Context, nationalID string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		// DeleteStudent also deletes the student's grades and absences.
		DeleteStudent(ctx context.Context, id string) error
	}

	Service interface {
		CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...Student) error
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Student, error)
		Get(ctx context.Context, id string) (Student, error)
		GetByNationalID(ctx context.Context, nationalID string) (Student, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
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

func (svc *service) CheckNationalIDUniqueness(ctx context.Context, nationalID string, exclStds ...Student) error {
	if err := svc.repo.CheckNationalIDUniqueness(ctx, nationalID, exclStds...); err != nil {
		if errors.Cause(err) == ErrNationalIDExists {
			return core.NewValidationError(err, core.FieldError{Field: "national_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := core.NowFunc()
	std := Student{
		ID:         uuid.NewString(),
		Name:       ns.Name,
		NationalID: ns.NationalID,
		Group:      ns.Group,
		UserID:     ns.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter, core.FilterOrderings(orderings, OrderingFields)...)
}

func (svc *service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) GetByNationalID(ctx context.Context, nationalID string) (Student, error) {
	return svc.repo.GetStudentByNationalID(ctx, strings.ToUpper(core.CleanString(nationalID)))
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	std.Name = us.Name
	if us.Group != nil {
		std.Group = *us.Group
	}
	if us.UserID != nil {
		std.UserID = *us.UserID
	}
	std.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}
