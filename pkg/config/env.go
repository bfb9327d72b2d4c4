package config

// EnvPrefix is handed to envconfig; every field also carries its full name as a tag.
const EnvPrefix = "TRADEFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "TRADEFLOW_APP_ENV"
	EnvPort        = "TRADEFLOW_APP_PORT"
	EnvLogLevel    = "TRADEFLOW_LOG_LEVEL"
	EnvDBDSN       = "TRADEFLOW_DB_DSN"
	EnvDBHost      = "TRADEFLOW_DB_HOST"
	EnvDBUser      = "TRADEFLOW_DB_USER"
	EnvDBName      = "TRADEFLOW_DB_NAME"
	EnvRedisURL    = "TRADEFLOW_REDIS_URL"
	EnvJWTSecret   = "TRADEFLOW_JWT_SECRET"
	EnvJWTIssuer   = "TRADEFLOW_JWT_ISSUER"
	EnvJWTExpMins  = "TRADEFLOW_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite   = "TRADEFLOW_USE_SQLITE"
	EnvMaxAttempts = "TRADEFLOW_CHECKOUT_MAX_ATTEMPTS"
	EnvCreditStock = "TRADEFLOW_CHECKOUT_CREDIT_RETAILER_INVENTORY"
	EnvEnforceMOQ  = "TRADEFLOW_CHECKOUT_ENFORCE_MOQ"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const defaultSQLiteDSN = "file:tradeflow.db?cache=shared&_busy_timeout=5000"
