package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRADEFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEFLOW_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"TRADEFLOW_LOG_FORMAT" default:"json"`

	CORSAllowedOrigins []string `envconfig:"TRADEFLOW_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"TRADEFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEFLOW_DB_DSN"`
	Driver string `envconfig:"TRADEFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEFLOW_DB_USER"`
	LegacyPassword string `envconfig:"TRADEFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADEFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADEFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADEFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRADEFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRADEFLOW_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig tunes order placement.
type CheckoutConfig struct {
	MaxAttempts             int             `envconfig:"TRADEFLOW_CHECKOUT_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay          time.Duration   `envconfig:"TRADEFLOW_CHECKOUT_RETRY_BASE_DELAY" default:"50ms"`
	CreditRetailerInventory bool            `envconfig:"TRADEFLOW_CHECKOUT_CREDIT_RETAILER_INVENTORY" default:"true"`
	EnforceMOQAtCheckout    bool            `envconfig:"TRADEFLOW_CHECKOUT_ENFORCE_MOQ" default:"true"`
	RetailerMarkup          decimal.Decimal `envconfig:"TRADEFLOW_CHECKOUT_RETAILER_MARKUP" default:"1.2"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TRADEFLOW_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"TRADEFLOW_PUBSUB_ORDERS_TOPIC" default:"tf-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRADEFLOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRADEFLOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRADEFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"TRADEFLOW_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"TRADEFLOW_CRON_INTERVAL" default:"24h"`
	StaleCartDays int           `envconfig:"TRADEFLOW_CRON_STALE_CART_DAYS" default:"30"`
	LockTTL       time.Duration `envconfig:"TRADEFLOW_CRON_LOCK_TTL" default:"25h"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
