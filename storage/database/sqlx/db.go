package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/report"
	"github.com/trezcool/gradebook/core/stats"
	"github.com/trezcool/gradebook/core/student"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// constraint names, see migrations/00001_init.sql
var constraintErrs = map[string]error{
	"student_national_id_key": student.ErrNationalIDExists,
	"module_name_key":         module.ErrNameExists,
	"grade_student_id_fkey":   student.ErrNotFound,
	"grade_module_id_fkey":    module.ErrNotFound,
	"absence_student_id_fkey": student.ErrNotFound,
	"absence_module_id_fkey":  module.ErrNotFound,
}

// trapErr maps "no rows" to notFound and known constraint violations to their domain errors.
func trapErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	if pqErr, ok := err.(*pq.Error); ok && (pqErr.Code == uniqueViolation || pqErr.Code == foreignKeyViolation) {
		if domainErr, found := constraintErrs[pqErr.Constraint]; found {
			return domainErr
		}
	}
	return errors.Wrap(err, msg)
}

// validID reports whether id can be compared to a uuid column without a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// orderBy renders the orderings on allowed columns, or def when none is left.
func orderBy(orderings []core.DBOrdering, allowed map[string]bool, def string) string {
	terms := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if allowed[ord.Field] {
			terms = append(terms, ord.String())
		}
	}
	if len(terms) == 0 {
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(terms, ", ") + ", " + def
}

// DB reads snapshots for the report service.
type DB struct {
	db *sqlx.DB
}

var _ report.SnapshotReader = (*DB)(nil)

func NewDB(db *sqlx.DB) *DB {
	return &DB{db: db}
}

// ReadSnapshot reads all the records in one read-only repeatable read transaction.
func (d *DB) ReadSnapshot(ctx context.Context) (stats.Snapshot, error) {
	tx, err := d.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "beginning snapshot transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var stdRows []studentRow
	if err = tx.SelectContext(ctx, &stdRows, "SELECT * FROM student ORDER BY "+studentDefaultOrder); err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "reading students")
	}
	var modRows []moduleRow
	if err = tx.SelectContext(ctx, &modRows, "SELECT * FROM module ORDER BY "+moduleDefaultOrder); err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "reading modules")
	}
	var grdRows []gradeRow
	if err = tx.SelectContext(ctx, &grdRows, "SELECT * FROM grade"); err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "reading grades")
	}
	var absRows []absenceRow
	if err = tx.SelectContext(ctx, &absRows, "SELECT * FROM absence"); err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "reading absences")
	}
	if err = tx.Commit(); err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "committing snapshot transaction")
	}

	return stats.Snapshot{
		Students: unmapStudents(stdRows),
		Modules:  unmapModules(modRows),
		Grades:   grade.GradesOf(unmapGrades(grdRows)),
		Absences: grade.AbsencesOf(unmapAbsences(absRows)),
	}, nil
}
