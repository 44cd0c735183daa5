package dig_container

import (
	"database/sql"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/admission/apps/api/echo"
	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
	"github.com/trezcool/admission/core/workflow"
	appfs "github.com/trezcool/admission/fs"
	emailsvc "github.com/trezcool/admission/services/email"
	locksvc "github.com/trezcool/admission/services/lock"
	logsvc "github.com/trezcool/admission/services/logger"
	notifiersvc "github.com/trezcool/admission/services/notifier"
	"github.com/trezcool/admission/storage/database"
	inmemdb "github.com/trezcool/admission/storage/database/inmem"
	sqlxrepos "github.com/trezcool/admission/storage/database/sqlx"
)

// EngineMemory keeps everything in process: handy for demos, lost on restart.
const EngineMemory = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage holds the repositories of the configured database engine.
	// DB is nil with the memory engine.
	Storage struct {
		dig.Out
		DB           *sql.DB
		Propositions proposition.Repository
		Groups       supervision.Repository
		Documents    document.Repository
		History      history.Repository
		Tx           core.Transactor
	}

	workflowParams struct {
		dig.In
		Conf         *core.Config
		Logger       core.Logger
		Propositions proposition.Repository
		Groups       supervision.Repository
		Documents    document.Repository
		History      workflow.HistoryLog
		Tx           core.Transactor
		Locker       workflow.Locker
		Notifier     workflow.Notifier
		Programs     catalog.Programs
		Scholarships catalog.Scholarships
		Calendar     catalog.Calendar
		Actors       catalog.Actors
		Profiles     catalog.Profiles
		Catalogue    *document.Catalogue
	}
)

func newZap(conf *core.Config) (*zap.Logger, error) {
	return logsvc.NewZap(conf)
}

func newLogger(local *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(local.Named("api"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(local *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(local.Named("db"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.Engine == EngineMemory {
		mem := inmemdb.Open()
		return Storage{
			Propositions: inmemdb.NewPropositionRepository(mem),
			Groups:       inmemdb.NewGroupRepository(mem),
			Documents:    inmemdb.NewDocumentRepository(mem),
			History:      inmemdb.NewHistoryRepository(mem),
			Tx:           inmemdb.NewTransactor(),
		}
	}

	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	sdb := sqlxrepos.NewDB(db)
	return Storage{
		DB:           db,
		Propositions: sqlxrepos.NewPropositionRepository(sdb),
		Groups:       sqlxrepos.NewGroupRepository(sdb),
		Documents:    sqlxrepos.NewDocumentRepository(sdb),
		History:      sqlxrepos.NewHistoryRepository(sdb),
		Tx:           sdb,
	}
}

// newCatalog serves the reference data from the embedded fixtures.
func newCatalog() (*inmemdb.Catalog, error) {
	f, err := appfs.FS.Open(appfs.CatalogFixtures)
	if err != nil {
		return nil, errors.Wrap(err, "opening catalog fixtures")
	}
	defer func() { _ = f.Close() }()

	c := inmemdb.NewCatalog(inmemdb.Open())
	if err = c.LoadFixtures(f); err != nil {
		return nil, err
	}
	return c, nil
}

func newCatalogue() (*document.Catalogue, error) {
	f, err := appfs.FS.Open(appfs.DocumentCatalogue)
	if err != nil {
		return nil, errors.Wrap(err, "opening document catalogue")
	}
	defer func() { _ = f.Close() }()
	return document.LoadCatalogue(f)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newNotifier(email core.EmailService, c *inmemdb.Catalog, catalogue *document.Catalogue, conf *core.Config) workflow.Notifier {
	return notifiersvc.NewEmailNotifier(email, c, c, c, catalogue, conf)
}

// newLocker locks through redis when it is configured, in process otherwise.
func newLocker(conf *core.Config, logger core.Logger) workflow.Locker {
	if conf.Redis.Address == "" {
		return locksvc.NewMemory(locksvc.DefaultWait)
	}
	return locksvc.NewRedis(locksvc.NewRedisClient(conf), conf.Redis.LockTTL, locksvc.DefaultWait, logger)
}

func newWorkflow(p workflowParams) *workflow.Service {
	return workflow.NewService(workflow.Deps{
		Propositions: p.Propositions,
		Groups:       p.Groups,
		Documents:    p.Documents,
		History:      p.History,
		Tx:           p.Tx,
		Locker:       p.Locker,
		Notifier:     p.Notifier,
		Programs:     p.Programs,
		Scholarships: p.Scholarships,
		Calendar:     p.Calendar,
		Actors:       p.Actors,
		Profiles:     p.Profiles,
		Catalogue:    p.Catalogue,
		Logger:       p.Logger,
		Config:       p.Conf.Admission,
	})
}

func newTranslator() ut.Translator {
	return core.NewTranslator(core.Languages[0])
}

func newServer(
	conf *core.Config,
	svc *workflow.Service,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *echoapi.Server {
	return echoapi.NewServer(conf, echoapi.Deps{
		Workflow:   svc,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZap))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(history.NewService, dig.As(new(workflow.HistoryLog))))
	must(c.Provide(newCatalog))
	must(c.Provide(
		func(c *inmemdb.Catalog) (catalog.Programs, catalog.Scholarships, catalog.Calendar, catalog.Actors, catalog.Profiles) {
			return c, c, c, c, c
		},
	))
	must(c.Provide(newCatalogue))
	must(c.Provide(newEmailService))
	must(c.Provide(newNotifier))
	must(c.Provide(newLocker))
	must(c.Provide(newWorkflow))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
