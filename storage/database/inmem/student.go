package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, row := range repo.db.student {
		if strings.EqualFold(row.NationalID, nationalID) && !isExcluded(row.ID, excludedStudents) {
			return student.ErrNationalIDExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, row := range repo.db.student {
		if strings.EqualFold(row.NationalID, std.NationalID) {
			return student.Student{}, student.ErrNationalIDExists
		}
	}
	repo.db.student[std.ID] = &studentRow{Student: std, seq: repo.db.nextSeq()}
	return std, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	students := make([]student.Student, 0, len(repo.db.student))
	for _, std := range repo.db.students() {
		if filter.Group != "" && std.Group != filter.Group {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(std.Name), search) &&
			!strings.Contains(strings.ToLower(std.NationalID), search) {
			continue
		}
		students = append(students, std)
	}

	sort.SliceStable(students, func(i, j int) bool {
		return less(orderings, func(col string) int { return compareStudents(students[i], students[j], col) })
	})
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if row, ok := repo.db.student[id]; ok {
		return row.Student, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByNationalID(ctx context.Context, nationalID string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, row := range repo.db.student {
		if strings.EqualFold(row.NationalID, nationalID) {
			return row.Student, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.student[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	// national id & creation date are immutable
	row.Name = std.Name
	row.Group = std.Group
	row.UserID = std.UserID
	row.UpdatedAt = std.UpdatedAt
	return row.Student, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.student[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.student, id)
	deleteKeys(repo.db, func(key grade.Key) bool { return key.StudentID == id })
	return nil
}

// deleteKeys removes the grades and absences matching del. The caller holds the write lock.
func deleteKeys(db *DB, del func(key grade.Key) bool) {
	for key := range db.grade {
		if del(key) {
			delete(db.grade, key)
		}
	}
	for key := range db.absence {
		if del(key) {
			delete(db.absence, key)
		}
	}
}

func isExcluded(id string, excludedStudents []student.Student) bool {
	for _, std := range excludedStudents {
		if std.ID == id {
			return true
		}
	}
	return false
}

func compareStudents(a, b student.Student, col string) int {
	switch col {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "national_id":
		return strings.Compare(a.NationalID, b.NationalID)
	case "group_name":
		return strings.Compare(a.Group, b.Group)
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}
