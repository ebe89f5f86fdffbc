package inmemdb_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage/database/inmem"
	"github.com/trezcool/gradebook/tests"
)

type repos struct {
	db      *inmemdb.DB
	student student.Repository
	module  module.Repository
	grade   grade.Repository
}

func newRepos() repos {
	db := inmemdb.Open()
	return repos{
		db:      db,
		student: inmemdb.NewStudentRepository(db),
		module:  inmemdb.NewModuleRepository(db),
		grade:   inmemdb.NewGradeRepository(db),
	}
}

func names(students []student.Student) []string {
	res := make([]string, 0, len(students))
	for _, std := range students {
		res = append(res, std.Name)
	}
	return res
}

func TestStudentRepository_QueryStudents(t *testing.T) {
	r := newRepos()
	ctx := context.Background()

	now := time.Now()
	alice := testutil.CreateStudent(t, r.student, "Alice", "A-001", "G1", now.Add(2*time.Hour))
	bob := testutil.CreateStudent(t, r.student, "bob", "B-002", "G2", now)
	carol := testutil.CreateStudent(t, r.student, "Carol", "C-003", "G1", now.Add(time.Hour))

	tests := []struct {
		name      string
		filter    student.QueryFilter
		orderings []core.DBOrdering
		want      []student.Student
	}{
		{name: "all, insertion order", want: []student.Student{alice, bob, carol}},
		{name: "group", filter: student.QueryFilter{Group: "G1"}, want: []student.Student{alice, carol}},
		{name: "search name", filter: student.QueryFilter{Search: "ob"}, want: []student.Student{bob}},
		{name: "search national id", filter: student.QueryFilter{Search: "c-0"}, want: []student.Student{carol}},
		{name: "group and search", filter: student.QueryFilter{Group: "G2", Search: "al"}, want: []student.Student{}},
		{
			name:      "order by name",
			orderings: []core.DBOrdering{{Field: "name", Ascending: true}},
			want:      []student.Student{alice, bob, carol},
		},
		{
			name:      "order by -created_at",
			orderings: []core.DBOrdering{{Field: "created_at"}},
			want:      []student.Student{alice, carol, bob},
		},
		{
			name:      "order by group_name,-name",
			orderings: []core.DBOrdering{{Field: "group_name", Ascending: true}, {Field: "name"}},
			want:      []student.Student{carol, alice, bob},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.student.QueryStudents(ctx, tt.filter, tt.orderings...)
			require.NoError(t, err)
			assert.Equal(t, names(tt.want), names(got))
		})
	}
}

func TestStudentRepository_uniqueness(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	std := testutil.CreateStudent(t, r.student, "Alice", "A-001", "")

	assert.Equal(t, student.ErrNationalIDExists, r.student.CheckNationalIDUniqueness(ctx, "a-001"))
	assert.NoError(t, r.student.CheckNationalIDUniqueness(ctx, "A-001", std))
	assert.NoError(t, r.student.CheckNationalIDUniqueness(ctx, "A-002"))

	_, err := r.student.CreateStudent(ctx, student.Student{ID: "other", Name: "Other", NationalID: "A-001"})
	assert.Equal(t, student.ErrNationalIDExists, err)

	got, err := r.student.GetStudentByNationalID(ctx, "a-001")
	require.NoError(t, err)
	assert.Equal(t, std, got)
}

func TestStudentRepository_UpdateStudent(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	std := testutil.CreateStudent(t, r.student, "Alice", "A-001", "G1")

	upd := std
	upd.Name = "Alice B."
	upd.Group = "G2"
	upd.NationalID = "Z-999"
	upd.UpdatedAt = std.UpdatedAt.Add(time.Minute)

	got, err := r.student.UpdateStudent(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", got.Name)
	assert.Equal(t, "G2", got.Group)
	assert.Equal(t, "A-001", got.NationalID, "national id is immutable")
	assert.Equal(t, upd.UpdatedAt, got.UpdatedAt)

	_, err = r.student.UpdateStudent(ctx, student.Student{ID: "unknown"})
	assert.Equal(t, student.ErrNotFound, err)
}

func TestDeleteCascades(t *testing.T) {
	r := newRepos()
	ctx := context.Background()

	alice := testutil.CreateStudent(t, r.student, "Alice", "A-001", "")
	bob := testutil.CreateStudent(t, r.student, "Bob", "B-002", "")
	maths := testutil.CreateModule(t, r.module, "Maths", 2)
	physics := testutil.CreateModule(t, r.module, "Physics", 1)
	for _, std := range []student.Student{alice, bob} {
		for _, mod := range []module.Module{maths, physics} {
			testutil.SetGrade(t, r.grade, std, mod, 12)
			testutil.SetAbsence(t, r.grade, std, mod, 1)
		}
	}

	require.NoError(t, r.student.DeleteStudent(ctx, alice.ID))
	require.NoError(t, r.module.DeleteModule(ctx, physics.ID))

	grades, err := r.grade.QueryGrades(ctx, grade.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []grade.Grade{{StudentID: bob.ID, ModuleID: maths.ID, Value: 12}}, grades)

	absences, err := r.grade.QueryAbsences(ctx, grade.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []grade.Absence{{StudentID: bob.ID, ModuleID: maths.ID, Count: 1}}, absences)

	snap, err := r.db.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Students, 1)
	assert.Len(t, snap.Modules, 1)
	assert.Len(t, snap.Grades, 1)
	assert.Len(t, snap.Absences, 1)

	assert.Equal(t, student.ErrNotFound, r.student.DeleteStudent(ctx, alice.ID))
	assert.Equal(t, module.ErrNotFound, r.module.DeleteModule(ctx, physics.ID))
}

func TestModuleRepository(t *testing.T) {
	r := newRepos()
	ctx := context.Background()

	maths := testutil.CreateModule(t, r.module, "Maths", 2)
	physics := testutil.CreateModule(t, r.module, "Physics", 1.5)

	t.Run("names are unique, ignoring case", func(t *testing.T) {
		assert.Equal(t, module.ErrNameExists, r.module.CheckNameUniqueness(ctx, "MATHS"))
		assert.NoError(t, r.module.CheckNameUniqueness(ctx, "maths", maths))
		_, err := r.module.CreateModule(ctx, module.Module{ID: "x", Name: "physics", Coefficient: 1})
		assert.Equal(t, module.ErrNameExists, err)

		physics.Name = "mAths"
		_, err = r.module.UpdateModule(ctx, physics)
		assert.Equal(t, module.ErrNameExists, err)
	})

	t.Run("update", func(t *testing.T) {
		upd := maths
		upd.Name = "Mathematics"
		upd.Coefficient = 3
		got, err := r.module.UpdateModule(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, upd, got)

		got, err = r.module.GetModule(ctx, maths.ID)
		require.NoError(t, err)
		assert.Equal(t, 3., got.Coefficient)
	})

	t.Run("query", func(t *testing.T) {
		mods, err := r.module.QueryModules(ctx, module.QueryFilter{}, core.DBOrdering{Field: "coefficient", Ascending: true})
		require.NoError(t, err)
		require.Len(t, mods, 2)
		assert.Equal(t, "Physics", mods[0].Name)

		mods, err = r.module.QueryModules(ctx, module.QueryFilter{Search: "MATH"})
		require.NoError(t, err)
		require.Len(t, mods, 1)
		assert.Equal(t, "Mathematics", mods[0].Name)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := r.module.GetModule(ctx, "unknown")
		assert.Equal(t, module.ErrNotFound, err)
	})
}

func TestGradeRepository(t *testing.T) {
	r := newRepos()
	ctx := context.Background()

	std := testutil.CreateStudent(t, r.student, "Alice", "A-001", "")
	mod := testutil.CreateModule(t, r.module, "Maths", 2)
	key := grade.Key{StudentID: std.ID, ModuleID: mod.ID}

	t.Run("set overwrites", func(t *testing.T) {
		testutil.SetGrade(t, r.grade, std, mod, 8)
		testutil.SetGrade(t, r.grade, std, mod, 15.5)

		grades, err := r.grade.QueryGrades(ctx, grade.QueryFilter{StudentID: std.ID})
		require.NoError(t, err)
		assert.Equal(t, []grade.Grade{{StudentID: std.ID, ModuleID: mod.ID, Value: 15.5}}, grades)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, r.grade.DeleteGrade(ctx, key))
		require.NoError(t, r.grade.DeleteGrade(ctx, key), "deleting a missing grade is a no-op")

		grades, err := r.grade.QueryGrades(ctx, grade.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, grades)
	})

	t.Run("zero absence removes the record", func(t *testing.T) {
		testutil.SetAbsence(t, r.grade, std, mod, 3)
		absences, err := r.grade.QueryAbsences(ctx, grade.QueryFilter{ModuleID: mod.ID})
		require.NoError(t, err)
		assert.Equal(t, []grade.Absence{{StudentID: std.ID, ModuleID: mod.ID, Count: 3}}, absences)

		testutil.SetAbsence(t, r.grade, std, mod, 0)
		absences, err = r.grade.QueryAbsences(ctx, grade.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, absences)
	})

	t.Run("unknown student or module", func(t *testing.T) {
		_, err := r.grade.SetGrade(ctx, grade.Grade{StudentID: "unknown", ModuleID: mod.ID, Value: 10})
		assert.Equal(t, student.ErrNotFound, err)
		_, err = r.grade.SetGrade(ctx, grade.Grade{StudentID: std.ID, ModuleID: "unknown", Value: 10})
		assert.Equal(t, module.ErrNotFound, err)
		_, err = r.grade.SetAbsence(ctx, grade.Absence{StudentID: std.ID, ModuleID: "unknown", Count: 1})
		assert.Equal(t, module.ErrNotFound, err)
	})
}

func TestDB_ReadSnapshot(t *testing.T) {
	r := newRepos()
	ctx := context.Background()

	alice := testutil.CreateStudent(t, r.student, "Alice", "A-001", "")
	bob := testutil.CreateStudent(t, r.student, "Bob", "B-002", "")
	mod := testutil.CreateModule(t, r.module, "Maths", 2)
	testutil.SetGrade(t, r.grade, alice, mod, 12)

	snap, err := r.db.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{alice, bob}, snap.Students)
	assert.Equal(t, []module.Module{mod}, snap.Modules)
	assert.Equal(t, grade.Grades{{StudentID: alice.ID, ModuleID: mod.ID}: 12}, snap.Grades)

	// the snapshot is a copy
	snap.Grades[grade.Key{StudentID: bob.ID, ModuleID: mod.ID}] = 20
	grades, err := r.grade.QueryGrades(ctx, grade.QueryFilter{StudentID: bob.ID})
	require.NoError(t, err)
	assert.Empty(t, grades)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.db.ReadSnapshot(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	r.db.Reset()
	snap, err = r.db.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Students)
}

func TestDB_concurrentDeleteAndSnapshot(t *testing.T) {
	r := newRepos()
	ctx := context.Background()

	mod := testutil.CreateModule(t, r.module, "Maths", 1)
	students := make([]student.Student, 0, 50)
	for i := 0; i < 50; i++ {
		std := testutil.CreateStudent(t, r.student, "Student", "S-"+strconv.Itoa(i), "")
		testutil.SetGrade(t, r.grade, std, mod, 10)
		students = append(students, std)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, std := range students {
			_ = r.student.DeleteStudent(ctx, std.ID)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			snap, err := r.db.ReadSnapshot(ctx)
			if !assert.NoError(t, err) {
				return
			}
			// no orphan grade is ever observed
			ids := make(map[string]bool, len(snap.Students))
			for _, std := range snap.Students {
				ids[std.ID] = true
			}
			for key := range snap.Grades {
				assert.True(t, ids[key.StudentID])
			}
		}
	}()
	wg.Wait()
}
