package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "SHOPCORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SHOPCORE_APP_ENV"
	EnvPort     = "SHOPCORE_APP_PORT"
	EnvLogLevel = "SHOPCORE_LOG_LEVEL"

	EnvDBDSN    = "SHOPCORE_DB_DSN"
	EnvDBDriver = "SHOPCORE_DB_DRIVER"
	EnvDBHost   = "SHOPCORE_DB_HOST"
	EnvDBUser   = "SHOPCORE_DB_USER"
	EnvDBName   = "SHOPCORE_DB_NAME"

	EnvRedisURL = "SHOPCORE_REDIS_URL"

	EnvJWTSecret = "SHOPCORE_JWT_SECRET"
	EnvJWTIssuer = "SHOPCORE_JWT_ISSUER"

	EnvCheckoutMarkConverted = "SHOPCORE_CHECKOUT_MARK_CART_CONVERTED"
	EnvCheckoutCallbackURL   = "SHOPCORE_CHECKOUT_CALLBACK_URL"

	EnvGatewayRedirectBase = "SHOPCORE_GATEWAY_REDIRECT_BASE_URL"

	EnvGCPProjectID        = "SHOPCORE_GCP_PROJECT_ID"
	EnvPubSubOrderTopic    = "SHOPCORE_PUBSUB_ORDER_EVENTS_TOPIC"
	EnvOutboxBatchSize     = "SHOPCORE_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvCouponApplyLimit    = "SHOPCORE_RATE_LIMIT_COUPON_APPLY_LIMIT"
	EnvCouponApplyWindow   = "SHOPCORE_RATE_LIMIT_COUPON_APPLY_WINDOW"
	EnvFeatureAutoMigrate  = "SHOPCORE_AUTO_MIGRATE"
	EnvIdempotencyTTL      = "SHOPCORE_REDIS_IDEMPOTENCY_TTL"
	EnvDBDriverSQLiteValue = "sqlite"
)

// legacyDBEnvVars must all be set when SHOPCORE_DB_DSN is absent.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
