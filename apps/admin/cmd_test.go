package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/report"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/services/email"
	"github.com/trezcool/gradebook/storage/database/inmem"
	"github.com/trezcool/gradebook/tests"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fixture struct {
	cli     *commandLine
	out     *bytes.Buffer
	stdRepo student.Repository
	modRepo module.Repository
	grdRepo grade.Repository
}

func setup(t *testing.T) fixture {
	color.NoColor = true

	// set up DB & repos
	db := inmemdb.Open()
	f := fixture{
		out:     new(bytes.Buffer),
		stdRepo: inmemdb.NewStudentRepository(db),
		modRepo: inmemdb.NewModuleRepository(db),
		grdRepo: inmemdb.NewGradeRepository(db),
	}

	// start CLI
	f.cli = &commandLine{
		out:    f.out,
		stdSvc: student.NewService(f.stdRepo),
		modSvc: module.NewService(f.modRepo),
		grdSvc: grade.NewService(f.grdRepo),
		rptSvc: report.NewService(db, emailsvc.NewConsoleServiceMock(&core.Config{AppName: "Gradebook"}, nopLogger{})),
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (f fixture) run(t *testing.T, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)

	f.run(t, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "importgrades: no file", args: []string{"importgrades"}, wantErr: errHelp},
		{name: "importgrades: unknown flag", args: []string{"importgrades", "-lol"}, wantErr: errHelp},
		{name: "report: unknown flag", args: []string{"report", "-lol"}, wantErr: errHelp},
	})
	assert.Contains(t, f.out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	gooseRunFunc = func(ctx context.Context, db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	f.run(t, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "exam_room", "sql"}},
	})
}

func Test_commandLine_importGrades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	alice := testutil.CreateStudent(t, f.stdRepo, "Alice", "A-001", "G1")
	bob := testutil.CreateStudent(t, f.stdRepo, "Bob", "B-002", "G1")
	maths := testutil.CreateModule(t, f.modRepo, "Maths", 2)
	physics := testutil.CreateModule(t, f.modRepo, "Physics", 1)
	testutil.SetGrade(t, f.grdRepo, bob, physics, 11)

	gradesOf := func(t *testing.T) grade.Grades {
		grades, err := f.grdRepo.QueryGrades(ctx, grade.QueryFilter{})
		require.NoError(t, err)
		return grade.GradesOf(grades)
	}

	t.Run("header errors", func(t *testing.T) {
		_, err := f.cli.importGrades(ctx, strings.NewReader(""))
		assert.Equal(t, errNoHeader, err)

		_, err = f.cli.importGrades(ctx, strings.NewReader("name,Maths\n"))
		assert.EqualError(t, err, `the first column must be "national_id"`)
	})

	t.Run("rows", func(t *testing.T) {
		csv := "national_id,maths,PHYSICS\n" +
			"A-001,12.5,abc\n" +
			"b-002, 9 ,\n" +
			"Z-999,10,10\n" +
			"A-001,,21\n"

		res, err := f.cli.importGrades(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 2, res.Set)     // A-001 maths, b-002 maths
		assert.Equal(t, 2, res.Removed) // b-002 physics, A-001 maths
		assert.Equal(t, []string{
			`line 2, Physics: "abc" is not a number`,
			`line 4: unknown student "Z-999"`,
			`line 5, Physics: grade must be between 0 and 20`,
		}, res.Errors)

		grades := gradesOf(t)
		assert.Equal(t, grade.Grades{{StudentID: bob.ID, ModuleID: maths.ID}: 9}, grades)
		_, ok := grades[grade.Key{StudentID: alice.ID, ModuleID: maths.ID}]
		assert.False(t, ok)
	})

	t.Run("unknown modules", func(t *testing.T) {
		res, err := f.cli.importGrades(ctx, strings.NewReader("national_id,Phisics,Chemistry\nA-001,15,15\n"))
		require.NoError(t, err)

		assert.Zero(t, res.Set)
		assert.Equal(t, []string{
			`unknown module "Phisics", did you mean "Physics"? column skipped`,
			`unknown module "Chemistry", column skipped`,
		}, res.Errors)
	})

	t.Run("blank cells count existing grades only", func(t *testing.T) {
		res, err := f.cli.importGrades(ctx, strings.NewReader("national_id,Maths,Physics\nA-001,,\nB-002,,\n"))
		require.NoError(t, err)

		assert.Zero(t, res.Set)
		assert.Equal(t, 1, res.Removed) // only b-002 maths was graded
		assert.Empty(t, res.Errors)
		assert.Empty(t, gradesOf(t))
	})

	t.Run("multi-line cells keep file line numbers", func(t *testing.T) {
		csv := "national_id,Maths,Notes\n" +
			"A-001,12,\"first\nsecond\"\n" +
			"Z-999,10,x\n" +
			"B-002,abc,y\n"

		res, err := f.cli.importGrades(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, res.Set)
		assert.Equal(t, []string{
			`unknown module "Notes", column skipped`,
			`line 4: unknown student "Z-999"`,
			`line 5, Maths: "abc" is not a number`,
		}, res.Errors)
		assert.Equal(t, 12., gradesOf(t)[grade.Key{StudentID: alice.ID, ModuleID: maths.ID}])
	})

	t.Run("command", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grades.csv")
		require.NoError(t, os.WriteFile(path, []byte("national_id,Physics\nA-001,16\nB-002,lol\n"), 0o600))

		f.out.Reset()
		err := f.cli.run(ctx, []string{"admin", "importgrades", "-file", path})
		require.NoError(t, err)

		out := f.out.String()
		assert.Contains(t, out, "1 grade(s) set, 0 removed")
		assert.Contains(t, out, "1 error(s):")
		assert.Contains(t, out, `line 3, Physics: "lol" is not a number`)
		assert.Equal(t, 16., gradesOf(t)[grade.Key{StudentID: alice.ID, ModuleID: physics.ID}])

		err = f.cli.run(ctx, []string{"admin", "importgrades", "-file", filepath.Join(t.TempDir(), "lol.csv")})
		assert.Error(t, err)
	})
}

func Test_commandLine_reports(t *testing.T) {
	f := setup(t)

	alice := testutil.CreateStudent(t, f.stdRepo, "Alice", "A-001", "G1")
	bob := testutil.CreateStudent(t, f.stdRepo, "Bob", "B-002", "G1")
	testutil.CreateStudent(t, f.stdRepo, "Carol", "C-003", "G2")
	maths := testutil.CreateModule(t, f.modRepo, "Maths", 2)
	physics := testutil.CreateModule(t, f.modRepo, "Physics", 1)
	testutil.SetGrade(t, f.grdRepo, alice, maths, 12)
	testutil.SetGrade(t, f.grdRepo, alice, physics, 18)
	testutil.SetGrade(t, f.grdRepo, bob, maths, 9)

	t.Run("report", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run(context.Background(), []string{"admin", "report"}))

		out := f.out.String()
		assert.Contains(t, out, "Class report (whole class)")
		assert.Contains(t, out, "33%")  // success rate
		assert.Contains(t, out, "11.50") // overall average
		assert.Contains(t, out, "Alice (14.00)")
		assert.Contains(t, out, "Bob (9.00)")
		assert.Contains(t, out, "Very Good")
		assert.Contains(t, out, "67%") // maths completion
	})

	t.Run("report of a group", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run(context.Background(), []string{"admin", "report", "-group", "G2"}))

		out := f.out.String()
		assert.Contains(t, out, "Class report (group G2)")
		assert.NotContains(t, out, "Alice")
	})

	t.Run("ranking", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run(context.Background(), []string{"admin", "ranking"}))

		out := f.out.String()
		assert.Contains(t, out, "Ranking (whole class)")
		assert.Less(t, strings.Index(out, "Alice"), strings.Index(out, "Bob"))
		assert.Contains(t, out, "Not ranked (no grade)")
		assert.Contains(t, out, "Carol")
	})
}
