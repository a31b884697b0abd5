package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Gateway      GatewayConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCORE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCORE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SHOPCORE_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"SHOPCORE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPCORE_DB_DSN"`
	Driver string `envconfig:"SHOPCORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPCORE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPCORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPCORE_DB_USER"`
	LegacyPassword string `envconfig:"SHOPCORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPCORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPCORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPCORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded driver was requested (local runs and tests).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), EnvDBDriverSQLiteValue)
}

type RedisConfig struct {
	URL            string        `envconfig:"SHOPCORE_REDIS_URL" required:"true"`
	Address        string        `envconfig:"SHOPCORE_REDIS_ADDR"`
	Password       string        `envconfig:"SHOPCORE_REDIS_PASSWORD"`
	DB             int           `envconfig:"SHOPCORE_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"SHOPCORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"SHOPCORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"SHOPCORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"SHOPCORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"SHOPCORE_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix      string        `envconfig:"SHOPCORE_REDIS_KEY_PREFIX" default:"shop"`
	IdempotencyTTL time.Duration `envconfig:"SHOPCORE_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret string `envconfig:"SHOPCORE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SHOPCORE_JWT_ISSUER" required:"true"`
}

type CheckoutConfig struct {
	// MarkCartConverted flips the cart to converted after checkout instead of
	// leaving it active for reuse.
	MarkCartConverted bool   `envconfig:"SHOPCORE_CHECKOUT_MARK_CART_CONVERTED" default:"false"`
	CallbackURL       string `envconfig:"SHOPCORE_CHECKOUT_CALLBACK_URL" default:"http://localhost:8080/api/v1/payment/verify"`
	PaymentMethod     string `envconfig:"SHOPCORE_CHECKOUT_PAYMENT_METHOD" default:"online_gateway"`
}

func (c CheckoutConfig) validate() error {
	if _, err := url.ParseRequestURI(c.CallbackURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCheckoutCallbackURL, err)
	}
	return nil
}

type GatewayConfig struct {
	RedirectBaseURL string        `envconfig:"SHOPCORE_GATEWAY_REDIRECT_BASE_URL" default:"https://sandbox.gateway.local/pay/"`
	SessionTTL      time.Duration `envconfig:"SHOPCORE_GATEWAY_SESSION_TTL" default:"30m"`
}

type RateLimitConfig struct {
	CouponApplyLimit  int           `envconfig:"SHOPCORE_RATE_LIMIT_COUPON_APPLY_LIMIT" default:"10"`
	CouponApplyWindow time.Duration `envconfig:"SHOPCORE_RATE_LIMIT_COUPON_APPLY_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPCORE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHOPCORE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic string `envconfig:"SHOPCORE_PUBSUB_ORDER_EVENTS_TOPIC" default:"shop-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPCORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPCORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPCORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// MetricsAddr is where the publisher serves /metrics; empty disables it.
	MetricsAddr string `envconfig:"SHOPCORE_OUTBOX_METRICS_ADDR" default:":9091"`
}

// MaintenanceConfig drives the cron worker. LockTTL must exceed one cycle.
type MaintenanceConfig struct {
	Interval        time.Duration `envconfig:"SHOPCORE_MAINTENANCE_INTERVAL" default:"5m"`
	LockTTL         time.Duration `envconfig:"SHOPCORE_MAINTENANCE_LOCK_TTL" default:"10m"`
	PendingOrderTTL time.Duration `envconfig:"SHOPCORE_MAINTENANCE_PENDING_ORDER_TTL" default:"1h"`
	ExpiryBatchSize int           `envconfig:"SHOPCORE_MAINTENANCE_EXPIRY_BATCH_SIZE" default:"100"`
	OutboxRetention time.Duration `envconfig:"SHOPCORE_MAINTENANCE_OUTBOX_RETENTION" default:"720h"`
	MetricsAddr     string        `envconfig:"SHOPCORE_MAINTENANCE_METRICS_ADDR" default:":9092"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:shopcore.db?cache=shared"
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
