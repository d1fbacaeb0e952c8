package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/kabasele/shule/apps/api/echo"
	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/directory"
	"github.com/kabasele/shule/core/user"
	emailsvc "github.com/kabasele/shule/services/email"
	logsvc "github.com/kabasele/shule/services/logger"
	pushsvc "github.com/kabasele/shule/services/push"
	firestoredb "github.com/kabasele/shule/storage/firestore"
	inmemdb "github.com/kabasele/shule/storage/inmem"
	sqlitedb "github.com/kabasele/shule/storage/sqlite"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up repositories
	usrRepo, entryRepo, closeStores, err := setUpStores(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up stores: %v", err), err)
	}
	defer closeStores()

	// set up services
	var mailSvc core.EmailService
	var pushSvc core.PushService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
		pushSvc = pushsvc.NewDummyService()
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
		pushSvc = pushsvc.NewFCMService(conf)
	}
	usrSvc := user.NewService(usrRepo, mailSvc, pushSvc, conf, logger)
	dirSvc := directory.NewService(entryRepo)

	// the live mirror backing unfiltered user listings
	projection, err := user.NewProjection(ctx, usrRepo, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("starting user projection: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			UserProjection: projection,
			DirectorySvc:   dirSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStores resolves the configured user and directory-entry repositories.
func setUpStores(ctx context.Context, conf *core.Config) (user.Repository, directory.Repository, func(), error) {
	noop := func() {}

	switch conf.Store.Engine {
	case "firestore":
		client, err := firestoredb.Open(ctx, conf)
		if err != nil {
			return nil, nil, noop, err
		}
		closeFn := func() { _ = client.Close() }

		entryRepo, closeEntries, err := setUpEntryRepo(conf, func() directory.Repository {
			return firestoredb.NewEntryRepository(client)
		})
		if err != nil {
			closeFn()
			return nil, nil, noop, err
		}
		return firestoredb.NewUserRepository(client), entryRepo, func() {
			closeEntries()
			closeFn()
		}, nil

	default: // memory
		db := inmemdb.Open()
		entryRepo, closeEntries, err := setUpEntryRepo(conf, func() directory.Repository {
			return inmemdb.NewEntryRepository(db)
		})
		if err != nil {
			return nil, nil, noop, err
		}
		return inmemdb.NewUserRepository(db), entryRepo, closeEntries, nil
	}
}

// setUpEntryRepo picks the sqlite local variant or the main store backend for
// directory entries.
func setUpEntryRepo(conf *core.Config, storeRepo func() directory.Repository) (directory.Repository, func(), error) {
	if conf.Store.DirectoryEngine != "sqlite" {
		return storeRepo(), func() {}, nil
	}

	db, err := sqlitedb.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err := sqlitedb.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlitedb.NewEntryRepository(db), func() { _ = db.Close() }, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
