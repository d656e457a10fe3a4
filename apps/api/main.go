package main

import (
	"context"
	"expvar"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/escolaria/escolaria/apps/api/echo"
	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/agenda"
	"github.com/escolaria/escolaria/core/assignment"
	"github.com/escolaria/escolaria/core/billing"
	"github.com/escolaria/escolaria/core/planning"
	"github.com/escolaria/escolaria/core/school"
	"github.com/escolaria/escolaria/core/tenant"
	"github.com/escolaria/escolaria/core/user"
	appfs "github.com/escolaria/escolaria/fs"
	aisvc "github.com/escolaria/escolaria/services/ai"
	emailsvc "github.com/escolaria/escolaria/services/email"
	logsvc "github.com/escolaria/escolaria/services/logger"
	paymentsvc "github.com/escolaria/escolaria/services/payment"
	"github.com/escolaria/escolaria/storage/database"
	sqlxrepos "github.com/escolaria/escolaria/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	schoolRepo := sqlxrepos.NewSchoolRepository(db)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	tenantSvc := tenant.NewService(sqlxrepos.NewTenantRepository(db))
	billingSvc := billing.NewService(sqlxrepos.NewBillingRepository(db), schoolRepo, paymentsvc.NewClient(conf))
	schoolSvc := school.NewService(schoolRepo, billingSvc)
	assignmentSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(db))
	planningSvc := planning.NewService(sqlxrepos.NewPlanningRepository(db), aisvc.NewClient(conf))
	agendaSvc := agenda.NewService(sqlxrepos.NewAgendaRepository(db), assignmentSvc, planningSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	tmplFS, err := fs.Sub(appfs.FS, "templates")
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading email templates: %v", err), err)
	}
	core.ParseEmailTemplates(tmplFS, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			TenantSvc:     tenantSvc,
			SchoolSvc:     schoolSvc,
			AgendaSvc:     agendaSvc,
			AssignmentSvc: assignmentSvc,
			PlanningSvc:   planningSvc,
			BillingSvc:    billingSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
