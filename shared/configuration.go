package shared

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "DAYLOG"

type AppConfig struct {
	PgUsername             string `split_words:"true" default:"postgres"`
	PgPassword             string `split_words:"true" default:"postgres"`
	PgContactPoint         string `split_words:"true" default:"127.0.0.1"`
	PgContactPort          string `split_words:"true" default:"5432"`
	PgDbName               string `split_words:"true" default:"daylog"`
	SqlMigrationsSourceDir string `split_words:"true" default:"/opt/daylog/sql"`

	GcpProjectID    string `split_words:"true" default:"daylog-prod"`
	GcpTopic        string `split_words:"true" default:"daylog-events"`
	GcpSubscription string `split_words:"true" default:"daylog-events"`
	ServiceAccount  string `split_words:"true" default:"/etc/daylog/daylog-sa.json"`

	BucketPhotosName     string `split_words:"true" default:"daylog-photos"`
	BucketServiceAccount string `split_words:"true" default:"/etc/daylog/bucket-sa.json"`

	FirebaseServiceAccount string `split_words:"true" default:"/etc/daylog/firebase-sa.json"`

	TestAuthMode   bool   `split_words:"true" default:"false"`
	TestAuthSecret string `split_words:"true" default:"daylog-test-secret"`

	StartupMigration bool `split_words:"true" default:"false"`

	SwaggerFilePath string `split_words:"true" default:"/opt/daylog/.docs/swagger.yml"`
}

func InitAppConfiguration() (config *AppConfig, err error) {
	config = &AppConfig{}
	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	return
}
