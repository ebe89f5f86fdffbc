package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name      string
		orderings []core.DBOrdering
		want      string
	}{
		{name: "default", want: " ORDER BY created_at, id"},
		{name: "unknown column", orderings: []core.DBOrdering{{Field: "password", Ascending: true}}, want: " ORDER BY created_at, id"},
		{
			name:      "known columns",
			orderings: []core.DBOrdering{{Field: "group_name", Ascending: true}, {Field: "name"}},
			want:      " ORDER BY group_name ASC, name DESC, created_at, id",
		},
		{
			name:      "injection",
			orderings: []core.DBOrdering{{Field: "name; DROP TABLE student", Ascending: true}, {Field: "name", Ascending: true}},
			want:      " ORDER BY name ASC, created_at, id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.orderings, studentColumns, studentDefaultOrder))
		})
	}
}

func Test_trapErr(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		err     error
		want    error
		wantMsg string
	}{
		{name: "no rows", err: sql.ErrNoRows, want: student.ErrNotFound},
		{name: "national id taken", err: &pq.Error{Code: uniqueViolation, Constraint: "student_national_id_key"}, want: student.ErrNationalIDExists},
		{name: "module name taken", err: &pq.Error{Code: uniqueViolation, Constraint: "module_name_key"}, want: module.ErrNameExists},
		{name: "unknown module", err: &pq.Error{Code: foreignKeyViolation, Constraint: "grade_module_id_fkey"}, want: module.ErrNotFound},
		{name: "unknown student", err: &pq.Error{Code: foreignKeyViolation, Constraint: "absence_student_id_fkey"}, want: student.ErrNotFound},
		{name: "other error", err: boom, want: boom, wantMsg: "querying: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := trapErr(tt.err, student.ErrNotFound, "querying")
			assert.Equal(t, tt.want, errors.Cause(err))
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
		})
	}
}

func Test_validID(t *testing.T) {
	assert.True(t, validID(uuid.NewString()))
	assert.False(t, validID("lol"))
	assert.False(t, validID(""))
}
