package config

// EnvPrefix scopes every environment variable read by Load.
const EnvPrefix = "OPTISHOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "OPTISHOP_APP_ENV"
	EnvPort     = "OPTISHOP_APP_PORT"
	EnvDBDSN    = "OPTISHOP_DB_DSN"
	EnvDBHost   = "OPTISHOP_DB_HOST"
	EnvDBUser   = "OPTISHOP_DB_USER"
	EnvDBName   = "OPTISHOP_DB_NAME"
	EnvRedisURL = "OPTISHOP_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
