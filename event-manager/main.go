package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sproutcare/daylog/event-manager/consumers"
	. "github.com/sproutcare/daylog/event-manager/shared"
	"github.com/sproutcare/daylog/messaging"
	daylog "github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"

	"cloud.google.com/go/pubsub"
	"github.com/facebookgo/inject"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

var (
	ctx    = context.Background()
	logger = daylog.NewLogger("event-manager")
	config *AppConfig
	db     *gorm.DB

	dbStore         = &store.Store{}
	stringGenerator = &daylog.StringGenerator{}

	pubSubClient *messaging.Client

	consumer          *consumers.Consumer
	reportSentHandler *consumers.ReportSentHandler
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initConsumerStarter())
	checkErrAndExit(initPubSubClient())
	checkErrAndExit(initPostgresConnection())
	checkErrAndExit(initApplicationGraph())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initConsumerStarter() (err error) {
	reportSentHandler = &consumers.ReportSentHandler{}
	consumer = &consumers.Consumer{}
	consumer.EventHandlers = append(consumer.EventHandlers, reportSentHandler)
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

func initApplicationGraph() error {
	g := inject.Graph{}
	g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: db},
		&inject.Object{Value: dbStore},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: logger},
		&inject.Object{Value: reportSentHandler},
		&inject.Object{Value: consumer},
		&inject.Object{Value: pubSubClient},
	)
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func main() {
	go consumer.Start(ctx)
	startHttpServer(ctx)
}

func startHttpServer(ctx context.Context) {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	checkErrAndExit(http.ListenAndServe("0.0.0.0:8081", router))
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}

func initPubSubClient() (err error) {
	pubSubClient, err = messaging.New(messaging.ClientOptions{
		ProjectID:      config.GcpProjectID,
		Subscription:   config.GcpSubscription,
		Topic:          config.GcpTopic,
		CredentialPath: config.ServiceAccount,
	})
	if err != nil {
		return err
	}

	ensureTopicAndSubscriptionsAreCreated()

	return nil
}

func ensureTopicAndSubscriptionsAreCreated() {
	ensure := func() bool {
		it := pubSubClient.Topics(ctx)
		for {
			topic, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				logger.Err(ctx, "errors in listing topics", "err", err)
				return false
			}
			if topic.ID() == config.GcpTopic {
				if !subscriptionExist(config.GcpSubscription, topic) {
					_, err := pubSubClient.GetPubSubClient().CreateSubscription(ctx, config.GcpSubscription, pubsub.SubscriptionConfig{
						Topic:               topic,
						RetainAckedMessages: false,
						AckDeadline:         20 * time.Second,
					})
					if err != nil {
						logger.Err(ctx, "errors while creating subscription", "err", err)
						return false
					}
				}
				logger.Info(ctx, "subscription "+config.GcpTopic+" found !")
				return true
			}
		}
		logger.Info(ctx, "no existing topic with the name "+config.GcpTopic+". try to create one...")
		_, err := pubSubClient.GetPubSubClient().CreateTopic(ctx, config.GcpTopic)
		if err != nil {
			logger.Err(ctx, "failed to create topic "+config.GcpTopic)
		}
		return false
	}

	for !ensure() {
		time.Sleep(1 * time.Second)
	}
}

func subscriptionExist(subscriptionName string, topic *pubsub.Topic) bool {
	it := topic.Subscriptions(ctx)
	for {
		subscription, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Err(ctx, "errors in listing subscriptions", "err", err)
			return false
		}
		if subscription.ID() == subscriptionName {
			return true
		}
	}
	return false
}
