package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Delivery      DeliveryConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"GRANDMARCHE_APP_ENV" required:"true"`
	Port         string `envconfig:"GRANDMARCHE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GRANDMARCHE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GRANDMARCHE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GRANDMARCHE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GRANDMARCHE_DB_DSN"`
	Driver string `envconfig:"GRANDMARCHE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GRANDMARCHE_DB_HOST"`
	LegacyPort     int    `envconfig:"GRANDMARCHE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GRANDMARCHE_DB_USER"`
	LegacyPassword string `envconfig:"GRANDMARCHE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GRANDMARCHE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GRANDMARCHE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GRANDMARCHE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GRANDMARCHE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GRANDMARCHE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GRANDMARCHE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GRANDMARCHE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GRANDMARCHE_REDIS_ADDR"`
	Password     string        `envconfig:"GRANDMARCHE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GRANDMARCHE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GRANDMARCHE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GRANDMARCHE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GRANDMARCHE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GRANDMARCHE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GRANDMARCHE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GRANDMARCHE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GRANDMARCHE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GRANDMARCHE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GRANDMARCHE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GRANDMARCHE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GRANDMARCHE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GRANDMARCHE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GRANDMARCHE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"GRANDMARCHE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit int           `envconfig:"GRANDMARCHE_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit   int           `envconfig:"GRANDMARCHE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GRANDMARCHE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GRANDMARCHE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"GRANDMARCHE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// DeliveryConfig carries the fee fallbacks applied when no delivery zone matches.
type DeliveryConfig struct {
	MetroCity       string `envconfig:"GRANDMARCHE_DELIVERY_METRO_CITY" default:"Abidjan"`
	MetroDefaultFee int64  `envconfig:"GRANDMARCHE_DELIVERY_METRO_DEFAULT_FEE" default:"1500"`
	InteriorFee     int64  `envconfig:"GRANDMARCHE_DELIVERY_INTERIOR_FEE" default:"3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GRANDMARCHE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GRANDMARCHE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GRANDMARCHE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"GRANDMARCHE_PUBSUB_DOMAIN_TOPIC" default:"gm-domain-events"`
	DomainSubscription string `envconfig:"GRANDMARCHE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GRANDMARCHE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GRANDMARCHE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GRANDMARCHE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
