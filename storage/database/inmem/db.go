package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/report"
	"github.com/trezcool/gradebook/core/stats"
	"github.com/trezcool/gradebook/core/student"
)

type (
	// DB is an in-memory record store. A single lock guards every table, so that cascading deletes and
	// snapshots never observe a half applied write.
	DB struct {
		mutex sync.RWMutex
		seq   int // insertion counter, the default ordering

		student map[string]*studentRow
		module  map[string]*moduleRow
		grade   grade.Grades
		absence grade.Absences
	}

	studentRow struct {
		student.Student
		seq int
	}

	moduleRow struct {
		module.Module
		seq int
	}
)

var _ report.SnapshotReader = (*DB)(nil)

func Open() *DB {
	return &DB{
		student: make(map[string]*studentRow),
		module:  make(map[string]*moduleRow),
		grade:   make(grade.Grades),
		absence: make(grade.Absences),
	}
}

// Reset drops every record.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.seq = 0
	db.student = make(map[string]*studentRow)
	db.module = make(map[string]*moduleRow)
	db.grade = make(grade.Grades)
	db.absence = make(grade.Absences)
}

func (db *DB) nextSeq() int {
	db.seq++
	return db.seq
}

// ReadSnapshot copies all the records, students and modules in insertion order.
func (db *DB) ReadSnapshot(ctx context.Context) (stats.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return stats.Snapshot{}, err
	}
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return stats.Snapshot{
		Students: db.students(),
		Modules:  db.modules(),
		Grades:   db.grade.Clone(),
		Absences: db.absence.Clone(),
	}, nil
}

func (db *DB) students() []student.Student {
	rows := make([]*studentRow, 0, len(db.student))
	for _, row := range db.student {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.Student)
	}
	return students
}

func (db *DB) modules() []module.Module {
	rows := make([]*moduleRow, 0, len(db.module))
	for _, row := range db.module {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	modules := make([]module.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, row.Module)
	}
	return modules
}

// less applies orderings in turn, the first one being the primary sort key.
// cmp compares the two items on a column and returns a negative, zero or positive number.
func less(orderings []core.DBOrdering, cmp func(col string) int) bool {
	for _, ord := range orderings {
		c := cmp(ord.Field)
		if c == 0 {
			continue
		}
		if ord.Ascending {
			return c < 0
		}
		return c > 0
	}
	return false
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
