package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/module"
)

const moduleDefaultOrder = "created_at, id"

var moduleColumns = map[string]bool{"name": true, "coefficient": true, "exam_date": true, "created_at": true}

type moduleRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Coefficient float64   `db:"coefficient"`
	ExamDate    null.Time `db:"exam_date"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func mapModule(mod module.Module) moduleRow {
	row := moduleRow{
		ID:          mod.ID,
		Name:        mod.Name,
		Coefficient: mod.Coefficient,
		CreatedAt:   mod.CreatedAt.UTC(),
		UpdatedAt:   mod.UpdatedAt.UTC(),
	}
	if mod.ExamDate != nil {
		row.ExamDate = null.TimeFrom(mod.ExamDate.UTC())
	}
	return row
}

func (row moduleRow) unmap() module.Module {
	mod := module.Module{
		ID:          row.ID,
		Name:        row.Name,
		Coefficient: row.Coefficient,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.ExamDate.Valid {
		ed := row.ExamDate.Time.UTC()
		mod.ExamDate = &ed
	}
	return mod
}

func unmapModules(rows []moduleRow) []module.Module {
	modules := make([]module.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, row.unmap())
	}
	return modules
}

type moduleRepository struct {
	db *sqlx.DB
}

var _ module.Repository = (*moduleRepository)(nil)

func NewModuleRepository(db *sqlx.DB) module.Repository {
	return &moduleRepository{db: db}
}

func (repo *moduleRepository) CheckNameUniqueness(ctx context.Context, name string, excludedModules ...module.Module) error {
	q := "SELECT EXISTS (SELECT 1 FROM module WHERE lower(name) = lower(?)"
	args := []interface{}{name}
	if len(excludedModules) > 0 {
		ids := make([]string, 0, len(excludedModules))
		for _, mod := range excludedModules {
			ids = append(ids, mod.ID)
		}
		inQ, inArgs, err := sqlx.In(" AND id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "checking module name uniqueness")
		}
		q += inQ
		args = append(args, inArgs...)
	}
	q += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking module name uniqueness")
	}
	if exists {
		return module.ErrNameExists
	}
	return nil
}

func (repo *moduleRepository) CreateModule(ctx context.Context, mod module.Module) (module.Module, error) {
	q := `INSERT INTO module (id, name, coefficient, exam_date, created_at, updated_at)
		VALUES (:id, :name, :coefficient, :exam_date, :created_at, :updated_at)`
	row := mapModule(mod)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return module.Module{}, trapErr(err, module.ErrNotFound, "inserting module")
	}
	return row.unmap(), nil
}

func (repo *moduleRepository) QueryModules(ctx context.Context, filter module.QueryFilter, orderings ...core.DBOrdering) ([]module.Module, error) {
	q := "SELECT * FROM module"
	var args []interface{}
	if filter.Search != "" {
		q += " WHERE name ILIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	q += orderBy(orderings, moduleColumns, moduleDefaultOrder)

	var rows []moduleRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	return unmapModules(rows), nil
}

func (repo *moduleRepository) GetModule(ctx context.Context, id string) (module.Module, error) {
	if !validID(id) {
		return module.Module{}, module.ErrNotFound
	}
	var row moduleRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM module WHERE id = $1", id); err != nil {
		return module.Module{}, trapErr(err, module.ErrNotFound, "finding module by ID")
	}
	return row.unmap(), nil
}

func (repo *moduleRepository) UpdateModule(ctx context.Context, mod module.Module) (module.Module, error) {
	if !validID(mod.ID) {
		return module.Module{}, module.ErrNotFound
	}
	q := `UPDATE module SET name = :name, coefficient = :coefficient, exam_date = :exam_date, updated_at = :updated_at
		WHERE id = :id RETURNING *`
	rows, err := repo.db.NamedQueryContext(ctx, q, mapModule(mod))
	if err != nil {
		return module.Module{}, trapErr(err, module.ErrNotFound, "updating module")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return module.Module{}, trapErr(err, module.ErrNotFound, "updating module")
		}
		return module.Module{}, module.ErrNotFound
	}
	var row moduleRow
	if err = rows.StructScan(&row); err != nil {
		return module.Module{}, errors.Wrap(err, "scanning module")
	}
	return row.unmap(), nil
}

// DeleteModule relies on the ON DELETE CASCADE foreign keys of grade and absence.
func (repo *moduleRepository) DeleteModule(ctx context.Context, id string) error {
	if !validID(id) {
		return module.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM module WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting module")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting module")
	} else if n == 0 {
		return module.ErrNotFound
	}
	return nil
}
