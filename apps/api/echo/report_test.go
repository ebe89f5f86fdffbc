package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core/report"
	"github.com/trezcool/gradebook/core/stats"
	"github.com/trezcool/gradebook/tests"
)

func Test_reportApi(t *testing.T) {
	a := setup(t)
	alice := testutil.CreateStudent(t, a.stdRepo, "Alice", "A-001", "G1")
	bob := testutil.CreateStudent(t, a.stdRepo, "Bob", "B-002", "G1")
	carol := testutil.CreateStudent(t, a.stdRepo, "Carol", "C-003", "G2")
	maths := testutil.CreateModule(t, a.modRepo, "Maths", 2)
	physics := testutil.CreateModule(t, a.modRepo, "Physics", 1)
	testutil.SetGrade(t, a.grdRepo, alice, maths, 12)
	testutil.SetGrade(t, a.grdRepo, alice, physics, 18)
	testutil.SetGrade(t, a.grdRepo, bob, maths, 9)
	testutil.SetGrade(t, a.grdRepo, carol, maths, 20)
	testutil.SetAbsence(t, a.grdRepo, bob, physics, 4)

	t.Run("class", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/reports/class")
		require.Equal(t, http.StatusOK, rec.Code)

		var rep report.ClassReport
		decode(t, rec, &rep)
		assert.Equal(t, 3, rep.CohortSize)
		assert.Equal(t, 3, rep.Averaged)
		assert.Equal(t, 67, rep.SuccessRate)
		require.NotNil(t, rep.OverallAverage)
		assert.Equal(t, 14.33, *rep.OverallAverage)
		assert.Equal(t, stats.Distribution{Excellent: 1, VeryGood: 1, Fail: 1}, rep.Distribution)
		require.NotNil(t, rep.Best)
		assert.Equal(t, carol.ID, rep.Best.Student.ID)
		require.NotNil(t, rep.Worst)
		assert.Equal(t, bob.ID, rep.Worst.Student.ID)
	})

	t.Run("class of a group", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/reports/class?group=G1")
		require.Equal(t, http.StatusOK, rec.Code)

		var rep report.ClassReport
		decode(t, rec, &rep)
		assert.Equal(t, "G1", rep.Group)
		assert.Equal(t, 2, rep.CohortSize)
		assert.Equal(t, 50, rep.SuccessRate)
		require.NotNil(t, rep.Best)
		assert.Equal(t, alice.ID, rep.Best.Student.ID)
	})

	t.Run("class of an empty group", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/reports/class?group=G9")
		require.Equal(t, http.StatusOK, rec.Code)

		var rep report.ClassReport
		decode(t, rec, &rep)
		assert.Zero(t, rep.CohortSize)
		assert.Zero(t, rep.SuccessRate)
		assert.Nil(t, rep.OverallAverage)
		assert.Nil(t, rep.Best)
		assert.Nil(t, rep.Worst)
	})

	t.Run("ranking", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/reports/ranking")
		require.Equal(t, http.StatusOK, rec.Code)

		var rnk report.Ranking
		decode(t, rec, &rnk)
		require.Len(t, rnk.Ranked, 3)
		ids := []string{rnk.Ranked[0].Student.ID, rnk.Ranked[1].Student.ID, rnk.Ranked[2].Student.ID}
		assert.Equal(t, []string{carol.ID, alice.ID, bob.ID}, ids)
		assert.Equal(t, []int{100, 67, 33}, []int{rnk.Ranked[0].Percentile, rnk.Ranked[1].Percentile, rnk.Ranked[2].Percentile})
		assert.Equal(t, stats.Excellent, rnk.Ranked[0].Mention)
		assert.Empty(t, rnk.Unranked)
	})

	t.Run("student report", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/reports/students/"+bob.ID+"?group=G1")
		require.Equal(t, http.StatusOK, rec.Code)

		var rep report.StudentReport
		decode(t, rec, &rep)
		assert.Equal(t, bob.ID, rep.Student.ID)
		require.NotNil(t, rep.Average)
		assert.Equal(t, 9., *rep.Average)
		assert.Equal(t, stats.Fail, rep.Mention)
		assert.False(t, rep.Passed)
		assert.Equal(t, 2, rep.Rank)
		assert.Equal(t, 2, rep.Ranked)
		assert.Equal(t, 4, rep.TotalAbsences)
		require.Len(t, rep.Modules, 2)
		assert.Nil(t, rep.Modules[1].Grade)
		assert.Equal(t, 4, rep.Modules[1].Absences)
	})

	t.Run("student report (unknown)", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/v1/reports/students/lol")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error": "student not found"}`, rec.Body.String())
	})

	a.run(t, []httpTest{
		{
			name: "send: invalid email", method: http.MethodPost, path: "/v1/reports/students/" + alice.ID + "/send",
			body: []byte(`{"email": "lol"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "send: email required", method: http.MethodPost, path: "/v1/reports/students/" + alice.ID + "/send",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "send: unknown student", method: http.MethodPost, path: "/v1/reports/students/lol/send",
			body: []byte(`{"email": "parent@test.cd"}`), wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "student not found"}),
		},
	})

	t.Run("send", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/v1/reports/students/"+alice.ID+"/send", []byte(`{"email": " Parent@Test.cd ", "name": "Parent"}`))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"success": "The report card will be sent to parent@test.cd."}`, rec.Body.String())

		msgs := a.mailSvc.SentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "parent@test.cd", msgs[0].To[0].Address)
		assert.Equal(t, "Parent", msgs[0].To[0].Name)
		assert.True(t, strings.Contains(msgs[0].TextContent, "Alice"))
		require.Len(t, msgs[0].Attachments, 1)
		assert.Equal(t, "report_card.csv", msgs[0].Attachments[0].Filename)
	})
}

