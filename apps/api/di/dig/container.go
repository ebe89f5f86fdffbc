package dig_container

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/report"
	"github.com/trezcool/gradebook/core/student"
	emailsvc "github.com/trezcool/gradebook/services/email"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage/database"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
)

// MemoryEngine keeps every record in the process memory; any other engine is a sql driver name.
const MemoryEngine = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Stores holds the repositories of the configured database engine.
	Stores struct {
		dig.Out
		StudentRepo student.Repository
		ModuleRepo  module.Repository
		GradeRepo   grade.Repository
		Snapshots   report.SnapshotReader
		DB          io.Closer `name:"db"`
	}

	DBParam struct {
		dig.In
		DB io.Closer `name:"db"`
	}

	ServerParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		StudentSvc student.Service
		ModuleSvc  module.Service
		GradeSvc   grade.Service
		ReportSvc  report.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) Stores {
	if conf.Database.Engine == MemoryEngine {
		loggerParam.Logger.Warn("using the in-memory store: records are lost on shutdown")
		db := inmemdb.Open()
		return Stores{
			StudentRepo: inmemdb.NewStudentRepository(db),
			ModuleRepo:  inmemdb.NewModuleRepository(db),
			GradeRepo:   inmemdb.NewGradeRepository(db),
			Snapshots:   db,
			DB:          nopCloser{},
		}
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	if err = database.Migrate(ctx, db.DB, "up"); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Stores{
		StudentRepo: sqlxrepos.NewStudentRepository(db),
		ModuleRepo:  sqlxrepos.NewModuleRepository(db),
		GradeRepo:   sqlxrepos.NewGradeRepository(db),
		Snapshots:   sqlxrepos.NewDB(db),
		DB:          db,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	module.InitValidators(validate, translator)
	return validate
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		StudentSvc: p.StudentSvc,
		ModuleSvc:  p.ModuleSvc,
		GradeSvc:   p.GradeSvc,
		ReportSvc:  p.ReportSvc,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStores))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(student.NewService))
	must(c.Provide(module.NewService))
	must(c.Provide(grade.NewService))
	must(c.Provide(report.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
