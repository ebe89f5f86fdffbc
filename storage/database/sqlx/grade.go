package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

type gradeRow struct {
	StudentID string  `db:"student_id"`
	ModuleID  string  `db:"module_id"`
	Value     float64 `db:"value"`
}

type absenceRow struct {
	StudentID string `db:"student_id"`
	ModuleID  string `db:"module_id"`
	Count     int    `db:"count"`
}

func unmapGrades(rows []gradeRow) []grade.Grade {
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, grade.Grade{StudentID: row.StudentID, ModuleID: row.ModuleID, Value: row.Value})
	}
	return grades
}

func unmapAbsences(rows []absenceRow) []grade.Absence {
	absences := make([]grade.Absence, 0, len(rows))
	for _, row := range rows {
		absences = append(absences, grade.Absence{StudentID: row.StudentID, ModuleID: row.ModuleID, Count: row.Count})
	}
	return absences
}

// checkKey rejects ids that cannot reference a row.
func checkKey(key grade.Key) error {
	if !validID(key.StudentID) {
		return student.ErrNotFound
	}
	if !validID(key.ModuleID) {
		return module.ErrNotFound
	}
	return nil
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) SetGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	if err := checkKey(g.Key()); err != nil {
		return grade.Grade{}, err
	}
	q := `INSERT INTO grade (student_id, module_id, value) VALUES ($1, $2, $3)
		ON CONFLICT (student_id, module_id) DO UPDATE SET value = EXCLUDED.value`
	if _, err := repo.db.ExecContext(ctx, q, g.StudentID, g.ModuleID, g.Value); err != nil {
		return grade.Grade{}, trapErr(err, student.ErrNotFound, "setting grade")
	}
	return g, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, key grade.Key) error {
	if checkKey(key) != nil {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM grade WHERE student_id = $1 AND module_id = $2", key.StudentID, key.ModuleID); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return nil
}

func (repo *gradeRepository) SetAbsence(ctx context.Context, a grade.Absence) (grade.Absence, error) {
	if err := checkKey(a.Key()); err != nil {
		return grade.Absence{}, err
	}

	if a.Count == 0 {
		// unknown student or module must still be reported
		var exists bool
		q := "SELECT EXISTS (SELECT 1 FROM student WHERE id = $1)"
		if err := repo.db.GetContext(ctx, &exists, q, a.StudentID); err != nil {
			return grade.Absence{}, errors.Wrap(err, "checking student")
		} else if !exists {
			return grade.Absence{}, student.ErrNotFound
		}
		q = "SELECT EXISTS (SELECT 1 FROM module WHERE id = $1)"
		if err := repo.db.GetContext(ctx, &exists, q, a.ModuleID); err != nil {
			return grade.Absence{}, errors.Wrap(err, "checking module")
		} else if !exists {
			return grade.Absence{}, module.ErrNotFound
		}

		q = "DELETE FROM absence WHERE student_id = $1 AND module_id = $2"
		if _, err := repo.db.ExecContext(ctx, q, a.StudentID, a.ModuleID); err != nil {
			return grade.Absence{}, errors.Wrap(err, "deleting absence")
		}
		return a, nil
	}

	q := `INSERT INTO absence (student_id, module_id, count) VALUES ($1, $2, $3)
		ON CONFLICT (student_id, module_id) DO UPDATE SET count = EXCLUDED.count`
	if _, err := repo.db.ExecContext(ctx, q, a.StudentID, a.ModuleID, a.Count); err != nil {
		return grade.Absence{}, trapErr(err, student.ErrNotFound, "setting absence")
	}
	return a, nil
}

func (repo *gradeRepository) filter(q string, filter grade.QueryFilter) (string, []interface{}) {
	var args []interface{}
	if filter.StudentID != "" {
		q += " AND student_id = ?"
		args = append(args, filter.StudentID)
	}
	if filter.ModuleID != "" {
		q += " AND module_id = ?"
		args = append(args, filter.ModuleID)
	}
	return repo.db.Rebind(q + " ORDER BY student_id, module_id"), args
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	if (filter.StudentID != "" && !validID(filter.StudentID)) || (filter.ModuleID != "" && !validID(filter.ModuleID)) {
		return []grade.Grade{}, nil
	}
	q, args := repo.filter("SELECT * FROM grade WHERE true", filter)

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return unmapGrades(rows), nil
}

func (repo *gradeRepository) QueryAbsences(ctx context.Context, filter grade.QueryFilter) ([]grade.Absence, error) {
	if (filter.StudentID != "" && !validID(filter.StudentID)) || (filter.ModuleID != "" && !validID(filter.ModuleID)) {
		return []grade.Absence{}, nil
	}
	q, args := repo.filter("SELECT * FROM absence WHERE true", filter)

	var rows []absenceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying absences")
	}
	return unmapAbsences(rows), nil
}
