package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/tests"
)

func Test_moduleApi(t *testing.T) {
	a := setup(t)
	maths := testutil.CreateModule(t, a.modRepo, "Maths", 2)
	physics := testutil.CreateModule(t, a.modRepo, "Physics", 1)
	alice := testutil.CreateStudent(t, a.stdRepo, "Alice", "A-001", "G1")
	testutil.SetGrade(t, a.grdRepo, alice, physics, 13)

	notFound := marshalObj(t, httpErr{Error: "module not found"})

	a.run(t, []httpTest{
		{
			name: "create: empty body", method: http.MethodPost, path: "/v1/modules", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"name":        "this field is required",
				"coefficient": "coefficient must be a number greater than 0",
			}),
		},
		{
			name: "create: negative coefficient", method: http.MethodPost, path: "/v1/modules",
			body:     []byte(`{"name": "Art", "coefficient": -1}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"coefficient": "coefficient must be a number greater than 0"}),
		},
		{
			name: "create: duplicate name (case-insensitive)", method: http.MethodPost, path: "/v1/modules",
			body:     []byte(`{"name": " maths ", "coefficient": 1}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"name": "a module with this name already exists"}),
		},
		{name: "query", path: "/v1/modules", wantData: marshalList(t, maths, physics)},
		{name: "query: search", path: "/v1/modules?search=PHY", wantData: marshalList(t, physics)},
		{name: "query: order by -coefficient", path: "/v1/modules?ordering=-coefficient", wantData: marshalList(t, maths, physics)},
		{name: "query: order by coefficient", path: "/v1/modules?ordering=coefficient", wantData: marshalList(t, physics, maths)},
		{name: "retrieve", path: "/v1/modules/" + maths.ID, wantData: marshalObj(t, maths)},
		{name: "retrieve (unknown)", path: "/v1/modules/lol", wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "update: rename to an existing name", method: http.MethodPut, path: "/v1/modules/" + maths.ID,
			body:     []byte(`{"name": "PHYSICS"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"name": "a module with this name already exists"}),
		},
		{
			name: "update: invalid coefficient", method: http.MethodPut, path: "/v1/modules/" + maths.ID,
			body:     []byte(`{"coefficient": 0}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"coefficient": "coefficient must be a number greater than 0"}),
		},
	})

	t.Run("create", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/modules", []byte(`{"name": "Chemistry", "coefficient": 1.5, "exam_date": "2026-06-15T11:00:00+02:00"}`))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var mod module.Module
		decode(t, rec, &mod)
		assert.NotEmpty(t, mod.ID)
		assert.Equal(t, "Chemistry", mod.Name)
		assert.Equal(t, 1.5, mod.Coefficient)
		require.NotNil(t, mod.ExamDate)
		assert.True(t, mod.ExamDate.Equal(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("update coefficient only", func(t *testing.T) {
		rec := a.do(http.MethodPut, "/v1/modules/"+maths.ID, []byte(`{"coefficient": 3}`))
		assert.Equal(t, http.StatusOK, rec.Code)

		var mod module.Module
		decode(t, rec, &mod)
		assert.Equal(t, "Maths", mod.Name)
		assert.Equal(t, 3., mod.Coefficient)
	})

	t.Run("update keeps its own name", func(t *testing.T) {
		rec := a.do(http.MethodPut, "/v1/modules/"+maths.ID, []byte(`{"name": "MATHS"}`))
		assert.Equal(t, http.StatusOK, rec.Code)

		var mod module.Module
		decode(t, rec, &mod)
		assert.Equal(t, "MATHS", mod.Name)
	})

	t.Run("delete cascades", func(t *testing.T) {
		rec := a.do(http.MethodDelete, "/v1/modules/"+physics.ID)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = a.do(http.MethodGet, "/v1/modules/"+physics.ID)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(http.MethodGet, "/v1/grades?module_id="+physics.ID)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}
