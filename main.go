package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/sproutcare/daylog/entries"
	"github.com/sproutcare/daylog/feed"
	daylogFirebase "github.com/sproutcare/daylog/firebase"
	"github.com/sproutcare/daylog/reports"
	. "github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/storage"
	. "github.com/sproutcare/daylog/store"

	"firebase.google.com/go"
	"firebase.google.com/go/auth"
	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/messaging"
	"github.com/sproutcare/daylog/store/migrations"

	"github.com/facebookgo/inject"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

var (
	ctx             = context.Background()
	swagger         []byte
	logger          = NewLogger("daylog")
	config          *AppConfig
	db              *gorm.DB
	stringGenerator = &StringGenerator{}

	entryService  = &entries.EntryService{}
	reportService = &reports.ReportService{}
	feedService   = &feed.FeedService{}

	entriesHandlerFactory = &entries.HandlerFactory{}
	reportsHandlerFactory = &reports.HandlerFactory{}
	feedHandlerFactory    = &feed.HandlerFactory{}
	daylogFirebaseClient  = &daylogFirebase.Client{}

	dbStore      = &Store{}
	gcsStorage   *storage.GoogleStorage
	pubSubClient *messaging.Client

	firebaseClient *auth.Client
	authenticator  = &authentication.Authenticator{}
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initPostgresConnection())
	checkErrAndExit(initFirebase())
	checkErrAndExit(initStorage())
	checkErrAndExit(initPubSubClient())
	checkErrAndExit(initApplicationGraph())
	checkErrAndExit(initSwagger())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initPostgresConnection() (err error) {
	connectString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.PgContactPoint,
		config.PgContactPort,
		config.PgUsername,
		config.PgPassword,
		config.PgDbName)
	db, err = gorm.Open("postgres", connectString)
	if err != nil {
		return
	}

	db.LogMode(true)
	db.SetLogger(logger)
	return
}

func initFirebase() error {
	opt := option.WithCredentialsFile(config.FirebaseServiceAccount)
	firebaseConfig := &firebase.Config{ProjectID: config.GcpProjectID}

	firebaseApp, err := firebase.NewApp(context.Background(), firebaseConfig, opt)
	if err != nil {
		return err
	}

	firebaseClient, err = firebaseApp.Auth(context.Background())
	if err != nil {
		return errors.Wrap(err, "error getting Auth client")
	}

	return nil
}

func initStorage() (err error) {
	gcsStorage, err = storage.New(ctx, storage.Options{
		CredentialsFile: config.BucketServiceAccount,
		BucketName:      config.BucketPhotosName,
	})
	return
}

func initPubSubClient() (err error) {
	pubSubClient, err = messaging.New(messaging.ClientOptions{
		ProjectID:      config.GcpProjectID,
		Topic:          config.GcpTopic,
		CredentialPath: config.ServiceAccount,
	})
	return
}

func initApplicationGraph() error {
	g := inject.Graph{}
	g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: entryService},
		&inject.Object{Value: reportService},
		&inject.Object{Value: feedService},
		&inject.Object{Value: entriesHandlerFactory},
		&inject.Object{Value: reportsHandlerFactory},
		&inject.Object{Value: feedHandlerFactory},
		&inject.Object{Value: db},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: dbStore},
		&inject.Object{Value: gcsStorage},
		&inject.Object{Value: pubSubClient},
		&inject.Object{Value: daylogFirebaseClient, Name: "daylogFirebaseClient"},
		&inject.Object{Value: firebaseClient},
		&inject.Object{Value: authenticator},
		&inject.Object{Value: logger},
	)
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func initSwagger() error {
	var err error
	swagger, err = ioutil.ReadFile(config.SwaggerFilePath)
	return err
}

func main() {
	if config.StartupMigration {
		applySqlSchemaMigrations(ctx)
	}
	startHttpServer(ctx)
}

func applySqlSchemaMigrations(ctx context.Context) {
	logger.Info(ctx, "applying sql schema migrations")
	migrationResult := migrations.Up(migrations.ApplyOptions{
		SourceURL: fmt.Sprintf("file://%s", config.SqlMigrationsSourceDir),
		DatabaseURL: fmt.Sprintf("postgres://%v:%v/%v?sslmode=disable&user=%s&password=%s",
			config.PgContactPoint, config.PgContactPort, config.PgDbName, config.PgUsername, config.PgPassword),
	})
	checkErrAndExit(migrationResult.Err)
	if !migrationResult.Changes {
		logger.Info(ctx, "no new migrations applied")
	}
}

func startHttpServer(ctx context.Context) {
	entriesOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(entries.EncodeError),
	}

	reportsOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(reports.EncodeError),
	}

	feedOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(feed.EncodeError),
	}

	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if err := dbStore.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(swagger)
	})

	apiRouterV1 := router.PathPrefix("/api/v1").Subrouter()

	apiRouterV1.Handle("/entries/bulk", authenticator.Roles(entriesHandlerFactory.BulkSubmit(entriesOpts), ROLE_TEACHER, ROLE_OFFICE_MANAGER, ROLE_ADMIN)).Methods(http.MethodPost)
	apiRouterV1.Handle("/entries", authenticator.Roles(entriesHandlerFactory.List(entriesOpts), ROLE_TEACHER, ROLE_OFFICE_MANAGER, ROLE_ADMIN)).Methods(http.MethodGet)

	apiRouterV1.Handle("/reports/daily", authenticator.Roles(reportsHandlerFactory.TeacherDaily(reportsOpts), ROLE_TEACHER, ROLE_OFFICE_MANAGER, ROLE_ADMIN)).Methods(http.MethodGet)
	apiRouterV1.Handle("/reports/daily/parent", authenticator.Roles(reportsHandlerFactory.ParentDaily(reportsOpts), ROLE_ADULT)).Methods(http.MethodGet)
	apiRouterV1.Handle("/reports/{reportId}/send", authenticator.Roles(reportsHandlerFactory.MarkSent(reportsOpts), ROLE_TEACHER, ROLE_OFFICE_MANAGER, ROLE_ADMIN)).Methods(http.MethodPost)

	apiRouterV1.Handle("/feed", authenticator.Roles(feedHandlerFactory.Feed(feedOpts), ROLE_ADULT)).Methods(http.MethodGet)

	checkErrAndExit(http.ListenAndServe("0.0.0.0:8080",
		logger.RequestLoggerMiddleware(
			authenticator.Firebase(router, []string{"/healthz", "/readyz", "/swagger.yaml"}),
		),
	))
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
