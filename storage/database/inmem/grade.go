package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

// checkKey fails when the student or the module of key is unknown. The caller holds the lock.
func (repo *gradeRepository) checkKey(key grade.Key) error {
	if _, ok := repo.db.student[key.StudentID]; !ok {
		return student.ErrNotFound
	}
	if _, ok := repo.db.module[key.ModuleID]; !ok {
		return module.ErrNotFound
	}
	return nil
}

func (repo *gradeRepository) SetGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkKey(g.Key()); err != nil {
		return grade.Grade{}, err
	}
	repo.db.grade[g.Key()] = g.Value
	return g, nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, key grade.Key) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.grade, key)
	return nil
}

func (repo *gradeRepository) SetAbsence(ctx context.Context, a grade.Absence) (grade.Absence, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkKey(a.Key()); err != nil {
		return grade.Absence{}, err
	}
	if a.Count == 0 {
		delete(repo.db.absence, a.Key())
	} else {
		repo.db.absence[a.Key()] = a.Count
	}
	return a, nil
}

// keyLess orders keys by student then module insertion order. The caller holds the lock.
func (repo *gradeRepository) keyLess(a, b grade.Key) bool {
	sa, sb := repo.db.student[a.StudentID], repo.db.student[b.StudentID]
	if sa != nil && sb != nil && sa.seq != sb.seq {
		return sa.seq < sb.seq
	}
	ma, mb := repo.db.module[a.ModuleID], repo.db.module[b.ModuleID]
	if ma != nil && mb != nil {
		return ma.seq < mb.seq
	}
	return false
}

func matches(filter grade.QueryFilter, key grade.Key) bool {
	return (filter.StudentID == "" || filter.StudentID == key.StudentID) &&
		(filter.ModuleID == "" || filter.ModuleID == key.ModuleID)
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]grade.Grade, 0)
	for key, val := range repo.db.grade {
		if matches(filter, key) {
			grades = append(grades, grade.Grade{StudentID: key.StudentID, ModuleID: key.ModuleID, Value: val})
		}
	}
	sort.Slice(grades, func(i, j int) bool { return repo.keyLess(grades[i].Key(), grades[j].Key()) })
	return grades, nil
}

func (repo *gradeRepository) QueryAbsences(ctx context.Context, filter grade.QueryFilter) ([]grade.Absence, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	absences := make([]grade.Absence, 0)
	for key, cnt := range repo.db.absence {
		if matches(filter, key) {
			absences = append(absences, grade.Absence{StudentID: key.StudentID, ModuleID: key.ModuleID, Count: cnt})
		}
	}
	sort.Slice(absences, func(i, j int) bool { return repo.keyLess(absences[i].Key(), absences[j].Key()) })
	return absences, nil
}
