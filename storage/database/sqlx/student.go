package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

const studentDefaultOrder = "created_at, id"

var studentColumns = map[string]bool{
	"name": true, "national_id": true, "group_name": true, "created_at": true, "updated_at": true,
}

type studentRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	NationalID string      `db:"national_id"`
	Group      string      `db:"group_name"`
	UserID     null.String `db:"user_id"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func mapStudent(std student.Student) studentRow {
	return studentRow{
		ID:         std.ID,
		Name:       std.Name,
		NationalID: std.NationalID,
		Group:      std.Group,
		UserID:     null.NewString(std.UserID, std.UserID != ""),
		CreatedAt:  std.CreatedAt.UTC(),
		UpdatedAt:  std.UpdatedAt.UTC(),
	}
}

func (row studentRow) unmap() student.Student {
	return student.Student{
		ID:         row.ID,
		Name:       row.Name,
		NationalID: row.NationalID,
		Group:      row.Group,
		UserID:     row.UserID.String,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func unmapStudents(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unmap())
	}
	return students
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...student.Student) error {
	q := "SELECT EXISTS (SELECT 1 FROM student WHERE upper(national_id) = upper(?)"
	args := []interface{}{nationalID}
	if len(excludedStudents) > 0 {
		ids := make([]string, 0, len(excludedStudents))
		for _, std := range excludedStudents {
			ids = append(ids, std.ID)
		}
		inQ, inArgs, err := sqlx.In(" AND id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "checking national id uniqueness")
		}
		q += inQ
		args = append(args, inArgs...)
	}
	q += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking national id uniqueness")
	}
	if exists {
		return student.ErrNationalIDExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := `INSERT INTO student (id, name, national_id, group_name, user_id, created_at, updated_at)
		VALUES (:id, :name, :national_id, :group_name, :user_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, mapStudent(std)); err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "inserting student")
	}
	return mapStudent(std).unmap(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error) {
	q := "SELECT * FROM student WHERE true"
	var args []interface{}

	if filter.Group != "" {
		q += " AND group_name = ?"
		args = append(args, filter.Group)
	}
	// students with Name or NationalID matching the search keyword
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		q += " AND (name ILIKE ? OR national_id ILIKE ?)"
		args = append(args, val, val)
	}
	q += orderBy(orderings, studentColumns, studentDefaultOrder)

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return unmapStudents(rows), nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM student WHERE id = $1", id); err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "finding student by ID")
	}
	return row.unmap(), nil
}

func (repo *studentRepository) GetStudentByNationalID(ctx context.Context, nationalID string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM student WHERE upper(national_id) = upper($1)", nationalID); err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "finding student by national id")
	}
	return row.unmap(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	if !validID(std.ID) {
		return student.Student{}, student.ErrNotFound
	}
	// national id & creation date are immutable
	q := `UPDATE student SET name = :name, group_name = :group_name, user_id = :user_id, updated_at = :updated_at
		WHERE id = :id RETURNING *`
	rows, err := repo.db.NamedQueryContext(ctx, q, mapStudent(std))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return student.Student{}, errors.Wrap(err, "updating student")
		}
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	if err = rows.StructScan(&row); err != nil {
		return student.Student{}, errors.Wrap(err, "scanning student")
	}
	return row.unmap(), nil
}

// DeleteStudent relies on the ON DELETE CASCADE foreign keys of grade and absence.
func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM student WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting student")
	} else if n == 0 {
		return student.ErrNotFound
	}
	return nil
}
