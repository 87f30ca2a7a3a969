package config

// EnvPrefix is used by envconfig when processing the configuration.
const EnvPrefix = "URETIMHUB"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "URETIMHUB_APP_ENV"
	EnvPort       = "URETIMHUB_APP_PORT"
	EnvDBDSN      = "URETIMHUB_DB_DSN"
	EnvDBHost     = "URETIMHUB_DB_HOST"
	EnvDBUser     = "URETIMHUB_DB_USER"
	EnvDBName     = "URETIMHUB_DB_NAME"
	EnvRedisURL   = "URETIMHUB_REDIS_URL"
	EnvJWTSecret  = "URETIMHUB_JWT_SECRET"
	EnvJWTIssuer  = "URETIMHUB_JWT_ISSUER"
	EnvJWTExpMins = "URETIMHUB_JWT_EXPIRATION_MINUTES"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
