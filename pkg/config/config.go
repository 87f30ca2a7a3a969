package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Features  FeatureFlagsConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Outbox    OutboxConfig
	Lifecycle LifecycleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"URETIMHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"URETIMHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"URETIMHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"URETIMHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"URETIMHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"URETIMHUB_DB_DSN"`
	Driver string `envconfig:"URETIMHUB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"URETIMHUB_DB_HOST"`
	Port     int    `envconfig:"URETIMHUB_DB_PORT" default:"5432"`
	User     string `envconfig:"URETIMHUB_DB_USER"`
	Password string `envconfig:"URETIMHUB_DB_PASSWORD"`
	Name     string `envconfig:"URETIMHUB_DB_NAME"`
	SSLMode  string `envconfig:"URETIMHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"URETIMHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"URETIMHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"URETIMHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"URETIMHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"URETIMHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"URETIMHUB_REDIS_ADDR"`
	Password     string        `envconfig:"URETIMHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"URETIMHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"URETIMHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"URETIMHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"URETIMHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"URETIMHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"URETIMHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"URETIMHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"URETIMHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"URETIMHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"URETIMHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"URETIMHUB_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"URETIMHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"URETIMHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"URETIMHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"URETIMHUB_PUBSUB_DOMAIN_TOPIC" default:"ux-domain-events"`
	NotificationSubscription string `envconfig:"URETIMHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"ux-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"URETIMHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"URETIMHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"URETIMHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// LifecycleConfig tunes the listing auto-deactivation sweeps.
type LifecycleConfig struct {
	SweepInterval  time.Duration `envconfig:"URETIMHUB_LIFECYCLE_SWEEP_INTERVAL" default:"24h"`
	ActiveWindow   time.Duration `envconfig:"URETIMHUB_LIFECYCLE_ACTIVE_WINDOW" default:"336h"`
	ReminderWindow time.Duration `envconfig:"URETIMHUB_LIFECYCLE_REMINDER_WINDOW" default:"168h"`
	ReminderDedup  time.Duration `envconfig:"URETIMHUB_LIFECYCLE_REMINDER_DEDUP" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
