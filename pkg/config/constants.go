package config

// EnvPrefix is the envconfig prefix for all settings.
const EnvPrefix = "INVENTORYMGR"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "INVENTORYMGR_APP_ENV"
	EnvPort       = "INVENTORYMGR_APP_PORT"
	EnvDBDSN      = "INVENTORYMGR_DB_DSN"
	EnvDBHost     = "INVENTORYMGR_DB_HOST"
	EnvDBUser     = "INVENTORYMGR_DB_USER"
	EnvDBName     = "INVENTORYMGR_DB_NAME"
	EnvRedisURL   = "INVENTORYMGR_REDIS_URL"
	EnvJWTSecret  = "INVENTORYMGR_JWT_SECRET"
	EnvJWTIssuer  = "INVENTORYMGR_JWT_ISSUER"
	EnvJWTExpMins = "INVENTORYMGR_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
