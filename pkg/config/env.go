package config

// EnvPrefix is handed to envconfig; every tag spells out its full name.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "STOREFRONT_APP_ENV"
	EnvPort       = "STOREFRONT_APP_PORT"
	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvRedisURL   = "STOREFRONT_REDIS_URL"
	EnvJWTSecret  = "STOREFRONT_AUTH_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_AUTH_JWT_ISSUER"
	EnvGCPProject = "STOREFRONT_GCP_PROJECT_ID"

	EnvDefaultShippingCost = "STOREFRONT_CHECKOUT_DEFAULT_SHIPPING_COST"
	EnvVerifyPayments      = "STOREFRONT_CHECKOUT_VERIFY_PAYMENTS"
	EnvCatalogRetryDelay   = "STOREFRONT_CATALOG_RETRY_DELAY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
