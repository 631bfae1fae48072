package shared

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "EVENT_MANAGER"

type AppConfig struct {
	PgUsername     string `split_words:"true" default:"postgres"`
	PgPassword     string `split_words:"true" default:"postgres"`
	PgContactPoint string `split_words:"true" default:"127.0.0.1"`
	PgContactPort  string `split_words:"true" default:"5432"`
	PgDbName       string `split_words:"true" default:"daylog"`

	GcpProjectID    string `split_words:"true" default:"daylog-prod"`
	GcpSubscription string `split_words:"true" default:"daylog-events"`
	GcpTopic        string `split_words:"true" default:"daylog-events"`

	ServiceAccount string `split_words:"true" default:"/etc/daylog/event-manager-sa.json"`
}

func InitAppConfiguration() (config *AppConfig, err error) {
	config = &AppConfig{}

	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	return
}
